package search

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrBadBudget = errors.New("invalid budget")

type budgetKind uint8

const (
	timeKind budgetKind = iota
	iterationKind
)

// Budget bounds one turn of search, either in wall-clock time or in expanded
// nodes. Iteration budgets make the search reproducible regardless of machine
// speed.
type Budget struct {
	kind  budgetKind
	limit int64
}

func TimeBudget(d time.Duration) Budget {
	return Budget{kind: timeKind, limit: int64(d)}
}

func IterationBudget(n int64) Budget {
	return Budget{kind: iterationKind, limit: n}
}

// Unlimited never runs out; depth and game end bound the search instead.
func Unlimited() Budget {
	return Budget{kind: timeKind, limit: math.MaxInt64}
}

func (b Budget) IsIterations() bool { return b.kind == iterationKind }

func (b Budget) IsUnlimited() bool { return b.limit == math.MaxInt64 }

func (b Budget) String() string {
	switch {
	case b.IsUnlimited():
		return "unlimited"
	case b.kind == iterationKind:
		return strconv.FormatInt(b.limit, 10) + "i"
	default:
		return time.Duration(b.limit).String()
	}
}

// ParseBudget accepts a Go duration ("90ms"), an iteration count with an "i"
// suffix ("20000i") or "unlimited".
func ParseBudget(s string) (Budget, error) {
	s = strings.TrimSpace(s)
	if s == "unlimited" {
		return Unlimited(), nil
	}
	if n, ok := strings.CutSuffix(s, "i"); ok {
		v, err := strconv.ParseInt(n, 10, 64)
		if err != nil || v < 0 {
			return Budget{}, fmt.Errorf("iterations %q: %w", s, ErrBadBudget)
		}
		return IterationBudget(v), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return Budget{}, fmt.Errorf("duration %q: %w", s, ErrBadBudget)
	}
	return TimeBudget(d), nil
}

// meter measures consumption in the budget's unit: nanoseconds for time
// budgets, expanded nodes for iteration budgets.
type meter struct {
	budget     Budget
	start      time.Time
	iterations int64
}

func (m *meter) reset(b Budget) {
	m.budget = b
	m.start = time.Now()
	m.iterations = 0
}

func (m *meter) elapsed() int64 {
	if m.budget.kind == iterationKind {
		return m.iterations
	}
	return int64(time.Since(m.start))
}

// remaining is what is left of the turn budget right now.
func (m *meter) remaining() int64 {
	if m.budget.IsUnlimited() {
		return math.MaxInt64
	}
	return m.budget.limit - m.elapsed()
}
