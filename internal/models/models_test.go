package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch_TransactionFilters(t *testing.T) {
	match := Match{
		Transactions: []Transaction{
			{ExternalID: "1", Category: CategoryRegular},
			{ExternalID: "2", Category: CategoryWithholding},
			{ExternalID: "3", Category: CategoryRegular},
			{ExternalID: "4", Category: CategorySplit},
		},
	}

	regular := match.RegularTransactions()
	assert.Len(t, regular, 2)
	assert.Equal(t, "1", regular[0].ExternalID)
	assert.Equal(t, "3", regular[1].ExternalID)

	withheld := match.WithholdingTransactions()
	assert.Len(t, withheld, 1)
	assert.Equal(t, "2", withheld[0].ExternalID)
}

func TestMatch_EmptyFilters(t *testing.T) {
	var match Match
	assert.Empty(t, match.RegularTransactions())
	assert.Empty(t, match.WithholdingTransactions())
}
