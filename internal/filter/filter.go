package filter

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"IncomeLens/internal/model"
)

// ErrUnknownField is returned by Set for a field name it does not know.
var ErrUnknownField = errors.New("unknown filter field")

// Field names one of the six bounds.
type Field string

const (
	MinDate      Field = "minDate"
	MaxDate      Field = "maxDate"
	MinRevenue   Field = "minRevenue"
	MaxRevenue   Field = "maxRevenue"
	MinNetIncome Field = "minNetIncome"
	MaxNetIncome Field = "maxNetIncome"
)

// Fields lists every bound in display order.
var Fields = []Field{MinDate, MaxDate, MinRevenue, MaxRevenue, MinNetIncome, MaxNetIncome}

// ParseField resolves a field name case-insensitively.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if strings.EqualFold(string(f), strings.TrimSpace(name)) {
			return f, nil
		}
	}
	return "", ErrUnknownField
}

type yearBound struct {
	year int
	set  bool
}

// amountBound keeps the integer cutoffs of a decimal bound. Records hold
// int64 amounts, so v >= d iff v >= ceil and v <= d iff v <= floor. over is
// -1 or +1 when the bound lies below or above the int64 range.
type amountBound struct {
	floor, ceil int64
	over        int
	text        string
	set         bool
}

// State holds the user-entered bounds. The zero value has every bound unset.
// Unset bounds are open ends.
type State struct {
	minDate, maxDate           yearBound
	minRevenue, maxRevenue     amountBound
	minNetIncome, maxNetIncome amountBound
}

func (s *State) SetMinDate(v string)      { s.minDate = parseYear(v) }
func (s *State) SetMaxDate(v string)      { s.maxDate = parseYear(v) }
func (s *State) SetMinRevenue(v string)   { s.minRevenue = parseAmount(v) }
func (s *State) SetMaxRevenue(v string)   { s.maxRevenue = parseAmount(v) }
func (s *State) SetMinNetIncome(v string) { s.minNetIncome = parseAmount(v) }
func (s *State) SetMaxNetIncome(v string) { s.maxNetIncome = parseAmount(v) }

// Set routes a string input to the named bound.
func (s *State) Set(field Field, value string) error {
	switch field {
	case MinDate:
		s.SetMinDate(value)
	case MaxDate:
		s.SetMaxDate(value)
	case MinRevenue:
		s.SetMinRevenue(value)
	case MaxRevenue:
		s.SetMaxRevenue(value)
	case MinNetIncome:
		s.SetMinNetIncome(value)
	case MaxNetIncome:
		s.SetMaxNetIncome(value)
	default:
		return ErrUnknownField
	}
	return nil
}

// Clear unsets every bound.
func (s *State) Clear() { *s = State{} }

// IsEmpty reports whether no bound is set.
func (s State) IsEmpty() bool {
	return !s.minDate.set && !s.maxDate.set &&
		!s.minRevenue.set && !s.maxRevenue.set &&
		!s.minNetIncome.set && !s.maxNetIncome.set
}

// Equal reports whether both states hold the same bounds.
func (s State) Equal(o State) bool {
	return s == o
}

// Predicate reports whether r satisfies every active bound. All bounds are inclusive.
func (s State) Predicate(r model.Record) bool {
	if s.minDate.set && r.Year < s.minDate.year {
		return false
	}
	if s.maxDate.set && r.Year > s.maxDate.year {
		return false
	}
	return within(r.Revenue, s.minRevenue, s.maxRevenue) &&
		within(r.NetIncome, s.minNetIncome, s.maxNetIncome)
}

// Value returns the normalized text of a bound, and whether it is set.
func (s State) Value(field Field) (string, bool) {
	switch field {
	case MinDate:
		return yearText(s.minDate)
	case MaxDate:
		return yearText(s.maxDate)
	case MinRevenue:
		return amountText(s.minRevenue)
	case MaxRevenue:
		return amountText(s.maxRevenue)
	case MinNetIncome:
		return amountText(s.minNetIncome)
	case MaxNetIncome:
		return amountText(s.maxNetIncome)
	}
	return "", false
}

// Bounds returns the set bounds keyed by field.
func (s State) Bounds() map[Field]string {
	out := make(map[Field]string)
	for _, f := range Fields {
		if v, ok := s.Value(f); ok {
			out[f] = v
		}
	}
	return out
}

func within(v int64, lo, hi amountBound) bool {
	if lo.set && (lo.over > 0 || lo.over == 0 && v < lo.ceil) {
		return false
	}
	if hi.set && (hi.over < 0 || hi.over == 0 && v > hi.floor) {
		return false
	}
	return true
}

// parseYear accepts exactly four ASCII digits; anything else clears the bound.
func parseYear(v string) yearBound {
	v = strings.TrimSpace(v)
	if len(v) != 4 {
		return yearBound{}
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return yearBound{}
		}
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return yearBound{}
	}
	return yearBound{year: year, set: true}
}

// maxTextExponent caps the exponent for which a bound is shown in plain
// decimal form; beyond it the input is shown as typed.
const maxTextExponent = 64

func parseAmount(v string) amountBound {
	v = strings.TrimSpace(v)
	if v == "" {
		return amountBound{}
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return amountBound{}
	}
	floor, ceil, over := model.IntSpan(d)
	text := v
	if e := d.Exponent(); e >= -maxTextExponent && e <= maxTextExponent {
		text = d.String()
	}
	return amountBound{floor: floor, ceil: ceil, over: over, text: text, set: true}
}

func yearText(b yearBound) (string, bool) {
	if !b.set {
		return "", false
	}
	return strconv.Itoa(b.year), true
}

func amountText(b amountBound) (string, bool) {
	if !b.set {
		return "", false
	}
	return b.text, true
}
