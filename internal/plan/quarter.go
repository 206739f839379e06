package plan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Quarter identifies one calendar quarter of a year.
type Quarter struct {
	Year int
	Q    int
}

func (q Quarter) String() string {
	return fmt.Sprintf("Q%d_%d", q.Q, q.Year)
}

// QuarterOf returns the calendar quarter a date falls in.
func QuarterOf(t time.Time) Quarter {
	return Quarter{
		Year: t.Year(),
		Q:    (int(t.Month())-1)/3 + 1,
	}
}

var (
	fullShare = decimal.NewFromInt(1)
	halfShare = decimal.NewFromFloat(0.5)
)

// SplitQuarters returns the booking fractions of a deal's commission by
// quarter. When close and revenue start fall in the same quarter (or no
// revenue start is known) the full commission books to the close quarter;
// otherwise it splits 50/50 between the two.
func SplitQuarters(closeDate time.Time, revenueStart *time.Time) map[Quarter]decimal.Decimal {
	closeQ := QuarterOf(closeDate)

	if revenueStart == nil {
		return map[Quarter]decimal.Decimal{closeQ: fullShare}
	}

	revenueQ := QuarterOf(*revenueStart)
	if revenueQ == closeQ {
		return map[Quarter]decimal.Decimal{closeQ: fullShare}
	}

	return map[Quarter]decimal.Decimal{
		closeQ:   halfShare,
		revenueQ: halfShare,
	}
}
