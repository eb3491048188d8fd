package sorting

import (
	"cmp"
	"errors"
	"strings"

	"IncomeLens/internal/model"
)

// ErrUnsortable is returned for columns that cannot be sorted.
var ErrUnsortable = errors.New("column is not sortable")

// Key is a sortable column.
type Key string

const (
	KeyDate      Key = "date"
	KeyRevenue   Key = "revenue"
	KeyNetIncome Key = "netIncome"
)

// Keys lists the sortable columns in display order.
var Keys = []Key{KeyDate, KeyRevenue, KeyNetIncome}

// ParseKey resolves a column name case-insensitively.
func ParseKey(name string) (Key, error) {
	for _, k := range Keys {
		if strings.EqualFold(string(k), strings.TrimSpace(name)) {
			return k, nil
		}
	}
	return "", ErrUnsortable
}

// Direction is the sort order.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// State is either unset (the zero value) or a (key, direction) pair.
type State struct {
	key Key
	dir Direction
}

// Key returns the active column, and false when sorting is unset.
func (s State) Key() (Key, bool) { return s.key, s.key != "" }

// Direction returns the active direction. Meaningless when unset.
func (s State) Direction() Direction { return s.dir }

// Toggle moves to (key, asc) on a new column, asc to desc on the same
// column, and leaves desc as it is. There is no third state that clears.
func (s *State) Toggle(key Key) error {
	if _, err := ParseKey(string(key)); err != nil {
		return err
	}
	switch {
	case s.key != key:
		s.key, s.dir = key, Asc
	case s.dir == Asc:
		s.dir = Desc
	}
	return nil
}

// Compare orders two records by the active column. It returns 0 when unset.
func (s State) Compare(a, b model.Record) int {
	var c int
	switch s.key {
	case KeyDate:
		c = strings.Compare(a.Date, b.Date)
	case KeyRevenue:
		c = cmp.Compare(a.Revenue, b.Revenue)
	case KeyNetIncome:
		c = cmp.Compare(a.NetIncome, b.NetIncome)
	default:
		return 0
	}
	if s.dir == Desc {
		return -c
	}
	return c
}

// Indicator returns the header glyph for key: ▲ for asc, ▼ for desc, empty otherwise.
func (s State) Indicator(key Key) string {
	if s.key != key || key == "" {
		return ""
	}
	if s.dir == Desc {
		return "▼"
	}
	return "▲"
}
