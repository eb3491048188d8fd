package collector

import (
	"context"
	"slices"
	"sync"

	"IncomeLens/internal/model"
)

// MockResponse is one scripted outcome of MockFetcher.Load.
type MockResponse struct {
	Records []model.Record
	Err     error
}

// MockFetcher returns controllable fixed data for development and testing.
// Responses are consumed in order; the last one repeats.
type MockFetcher struct {
	Responses []MockResponse
	// Gate, when set, blocks Load until it is closed or ctx ends.
	Gate chan struct{}

	mu    sync.Mutex
	calls int
}

// NewMockFetcher returns a fetcher that always succeeds with records.
func NewMockFetcher(records []model.Record) *MockFetcher {
	return &MockFetcher{Responses: []MockResponse{{Records: records}}}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Load(ctx context.Context) ([]model.Record, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &NetworkError{Err: ctx.Err()}
		}
	}

	if len(m.Responses) == 0 {
		return nil, nil
	}
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	resp := m.Responses[idx]
	if resp.Err != nil {
		return nil, resp.Err
	}
	return slices.Clone(resp.Records), nil
}

// Calls reports how many times Load was invoked.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SampleRecords is a small AAPL feed in upstream (newest-first) order.
func SampleRecords() []model.Record {
	return []model.Record{
		{Date: "2023-09-30", Year: 2023, Symbol: "AAPL", Revenue: 383285000000, NetIncome: 96995000000, GrossProfit: 169148000000, OperatingIncome: 114301000000, EPS: 6.13},
		{Date: "2022-09-24", Year: 2022, Symbol: "AAPL", Revenue: 394328000000, NetIncome: 99803000000, GrossProfit: 170782000000, OperatingIncome: 119437000000, EPS: 6.11},
		{Date: "2021-09-25", Year: 2021, Symbol: "AAPL", Revenue: 365817000000, NetIncome: 94680000000, GrossProfit: 152836000000, OperatingIncome: 108949000000, EPS: 5.61},
		{Date: "2020-09-26", Year: 2020, Symbol: "AAPL", Revenue: 274515000000, NetIncome: 57411000000, GrossProfit: 104956000000, OperatingIncome: 66288000000, EPS: 3.28},
	}
}
