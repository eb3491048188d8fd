package presenter

import (
	"errors"
	"strings"

	"IncomeLens/internal/fetch"
	"IncomeLens/internal/filter"
	"IncomeLens/internal/model"
	"IncomeLens/internal/sorting"
)

// ErrUnknownPanel is returned for a panel name that does not exist.
var ErrUnknownPanel = errors.New("unknown filter panel")

// Panel names a collapsible filter panel.
type Panel string

const (
	PanelDate      Panel = "date"
	PanelRevenue   Panel = "revenue"
	PanelNetIncome Panel = "netIncome"
)

// AllPanels lists the panels in display order.
var AllPanels = []Panel{PanelDate, PanelRevenue, PanelNetIncome}

// ParsePanel resolves a panel name case-insensitively.
func ParsePanel(name string) (Panel, error) {
	for _, p := range AllPanels {
		if strings.EqualFold(string(p), strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return "", ErrUnknownPanel
}

func (p Panel) title() string {
	switch p {
	case PanelDate:
		return "Date"
	case PanelRevenue:
		return "Revenue"
	default:
		return "Net income"
	}
}

func (p Panel) fields() (min, max filter.Field) {
	switch p {
	case PanelDate:
		return filter.MinDate, filter.MaxDate
	case PanelRevenue:
		return filter.MinRevenue, filter.MaxRevenue
	default:
		return filter.MinNetIncome, filter.MaxNetIncome
	}
}

// Panels holds expansion state. The zero value has every panel collapsed.
type Panels struct {
	Date      bool
	Revenue   bool
	NetIncome bool
}

// Toggle flips one panel.
func (ps *Panels) Toggle(p Panel) error {
	switch p {
	case PanelDate:
		ps.Date = !ps.Date
	case PanelRevenue:
		ps.Revenue = !ps.Revenue
	case PanelNetIncome:
		ps.NetIncome = !ps.NetIncome
	default:
		return ErrUnknownPanel
	}
	return nil
}

// Expanded reports whether p is open.
func (ps Panels) Expanded(p Panel) bool {
	switch p {
	case PanelDate:
		return ps.Date
	case PanelRevenue:
		return ps.Revenue
	case PanelNetIncome:
		return ps.NetIncome
	}
	return false
}

// SortInfo is the active sort, as rendered.
type SortInfo struct {
	Key       sorting.Key `json:"key"`
	Direction string      `json:"direction"`
}

// Snapshot is everything a renderer needs. It is built from the fetch state,
// the filter and sort states, the panels and the derived rows.
type Snapshot struct {
	Status  string                  `json:"status"`
	Message string                  `json:"message,omitempty"`
	Filters map[filter.Field]string `json:"filters"`
	Sort    *SortInfo               `json:"sort,omitempty"`
	Panels  map[Panel]bool          `json:"panels"`
	Rows    []model.Record          `json:"rows"`
	Total   int                     `json:"total"`

	ShowLoading      bool `json:"showLoading"`
	ShowError        bool `json:"showError"`
	ShowTable        bool `json:"showTable"`
	ShowEmpty        bool `json:"showEmpty"`
	ShowClearFilters bool `json:"showClearFilters"`

	sort sorting.State
}

// Build assembles a Snapshot. rows must be the derived sequence for the
// given states; it is only shown when the load is Ready.
func Build(fs fetch.State, f filter.State, s sorting.State, panels Panels, rows []model.Record) Snapshot {
	snap := Snapshot{
		Status:           fs.Status.String(),
		Filters:          f.Bounds(),
		Panels:           make(map[Panel]bool, len(AllPanels)),
		Rows:             []model.Record{},
		ShowLoading:      fs.Status == fetch.StatusLoading,
		ShowError:        fs.Status == fetch.StatusError,
		ShowTable:        fs.Status == fetch.StatusReady,
		ShowClearFilters: !f.IsEmpty(),
		sort:             s,
	}
	for _, p := range AllPanels {
		snap.Panels[p] = panels.Expanded(p)
	}
	if key, ok := s.Key(); ok {
		snap.Sort = &SortInfo{Key: key, Direction: s.Direction().String()}
	}
	if snap.ShowError {
		snap.Message = fs.Message
	}
	if snap.ShowTable {
		if rows != nil {
			snap.Rows = rows
		}
		snap.Total = len(fs.Records)
		snap.ShowEmpty = len(snap.Rows) == 0
	}
	return snap
}
