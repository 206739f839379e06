package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogrusAdapter(t *testing.T) {
	logger := NewLogrusAdapter("debug", "json")
	require.NotNil(t, logger)

	// Derived loggers keep the interface.
	assert.NotNil(t, logger.WithField("k", "v"))
	assert.NotNil(t, logger.WithFields(Field{Key: "a", Value: 1}))
	assert.NotNil(t, logger.WithError(errors.New("boom")))
}

func TestNewLogrusAdapter_InvalidLevel(t *testing.T) {
	assert.NotPanics(t, func() {
		logger := NewLogrusAdapter("not-a-level", "text")
		logger.Info("still works")
	})
}

func TestMockLogger_RecordsEntries(t *testing.T) {
	mock := &MockLogger{}

	mock.Info("first", Field{Key: FieldCount, Value: 3})
	mock.Warn("second")

	require.Len(t, mock.Entries, 2)
	assert.Equal(t, "INFO", mock.Entries[0].Level)
	assert.Equal(t, "first", mock.Entries[0].Message)
	require.Len(t, mock.Entries[0].Fields, 1)
	assert.Equal(t, FieldCount, mock.Entries[0].Fields[0].Key)
	assert.Equal(t, "WARN", mock.Entries[1].Level)
}

func TestMockLogger_WithChain(t *testing.T) {
	mock := &MockLogger{}
	derived := mock.WithError(errors.New("boom")).WithField("k", "v").(*MockLogger)

	derived.Error("failed")

	require.Len(t, derived.Entries, 1)
	assert.EqualError(t, derived.Entries[0].Error, "boom")
	assert.Equal(t, "k", derived.Entries[0].Fields[0].Key)
}
