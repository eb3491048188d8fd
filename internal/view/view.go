package view

import (
	"slices"

	"IncomeLens/internal/filter"
	"IncomeLens/internal/model"
	"IncomeLens/internal/sorting"
)

// Derive returns the displayed rows: records kept by the filter, then stably
// sorted when a sort is set. The input slice is never modified.
func Derive(records []model.Record, f filter.State, s sorting.State) []model.Record {
	rows := make([]model.Record, 0, len(records))
	for _, r := range records {
		if f.Predicate(r) {
			rows = append(rows, r)
		}
	}
	if _, ok := s.Key(); ok {
		slices.SortStableFunc(rows, s.Compare)
	}
	return rows
}

// Pipeline caches Derive. The cache is keyed by the dataset generation plus
// the filter and sort states; Rows recomputes at most once per change.
type Pipeline struct {
	records    []model.Record
	generation uint64
	filter     filter.State
	sort       sorting.State

	rows       []model.Record
	rowsGen    uint64
	dirty      bool
	recomputes int
}

// NewPipeline returns an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{dirty: true}
}

// SetRecords replaces the dataset wholesale.
func (p *Pipeline) SetRecords(records []model.Record) {
	p.records = records
	p.generation++
}

// SetFilter installs a new filter state.
func (p *Pipeline) SetFilter(f filter.State) {
	if p.filter.Equal(f) {
		return
	}
	p.filter = f
	p.dirty = true
}

// SetSort installs a new sort state.
func (p *Pipeline) SetSort(s sorting.State) {
	if p.sort == s {
		return
	}
	p.sort = s
	p.dirty = true
}

// Rows returns the current derived rows. Callers receive their own copy.
func (p *Pipeline) Rows() []model.Record {
	if p.dirty || p.rowsGen != p.generation {
		p.rows = Derive(p.records, p.filter, p.sort)
		p.rowsGen = p.generation
		p.dirty = false
		p.recomputes++
	}
	return slices.Clone(p.rows)
}
