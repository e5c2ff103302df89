package budget

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// Slice is one named bucket of the monthly breakdown, in chart order.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Breakdown is the derived view of one month's plan. Leftover is floored
// at zero; when obligations exceed income the shortfall is reported in
// Deficit instead of as a negative leftover.
type Breakdown struct {
	TotalFixed    float64 `json:"total_fixed"`
	TotalVariable float64 `json:"total_variable"`
	SavingsGoal   float64 `json:"savings_goal"`
	Leftover      float64 `json:"leftover"`
	Deficit       float64 `json:"deficit"`
	Slices        []Slice `json:"slices"`
}

// Compute derives the monthly breakdown from income, the savings goal,
// and the two expense ledgers. Pure: no I/O, cheap enough to run on
// every keystroke (O(n) over ledger lengths).
func Compute(income, savingsGoal float64, fixed, variable Ledger) Breakdown {
	income = clampAmount(income)
	savingsGoal = clampAmount(savingsGoal)

	totalFixed := fixed.Total()
	totalVariable := variable.Total()

	rem := decimal.NewFromFloat(income).
		Sub(decimal.NewFromFloat(totalFixed)).
		Sub(decimal.NewFromFloat(totalVariable)).
		Sub(decimal.NewFromFloat(savingsGoal))

	leftover := decimal.Zero
	deficit := decimal.Zero
	if rem.IsNegative() {
		deficit = rem.Neg()
	} else {
		leftover = rem
	}

	lf, _ := leftover.Float64()
	df, _ := deficit.Float64()

	return Breakdown{
		TotalFixed:    totalFixed,
		TotalVariable: totalVariable,
		SavingsGoal:   savingsGoal,
		Leftover:      lf,
		Deficit:       df,
		Slices: []Slice{
			{Name: "Fixed", Value: totalFixed},
			{Name: "Variable", Value: totalVariable},
			{Name: "Savings", Value: savingsGoal},
			{Name: "Leftover", Value: lf},
		},
	}
}

// OverBudget reports whether the month's obligations exceed its income.
func (b Breakdown) OverBudget() bool {
	return b.Deficit > 0
}

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// MonthKey identifies one budget period as "YYYY-MM". There is at most
// one budget record per (user, month).
type MonthKey string

// Valid reports whether the key is a well-formed "YYYY-MM" string.
func (m MonthKey) Valid() bool {
	return monthKeyPattern.MatchString(string(m))
}

// CurrentMonth returns the month key for the given instant.
func CurrentMonth(now time.Time) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", now.Year(), int(now.Month())))
}
