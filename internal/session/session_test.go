package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"IncomeLens/internal/collector"
	"IncomeLens/internal/fetch"
	"IncomeLens/internal/filter"
	"IncomeLens/internal/presenter"
	"IncomeLens/internal/sorting"
)

func startSession(t *testing.T, f collector.Fetcher) (*Session, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := New(fetch.NewController(f, nil), nil)
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s, ctx
}

func waitStatus(t *testing.T, s *Session, status string) presenter.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap := s.Snapshot(); snap.Status == status {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for status %q, last %q", status, s.Snapshot().Status)
	return presenter.Snapshot{}
}

func TestSession_LoadFilterSort(t *testing.T) {
	s, ctx := startSession(t, collector.NewMockFetcher(collector.SampleRecords()))
	if s.Snapshot().Status != "idle" {
		t.Fatalf("expected idle, got %s", s.Snapshot().Status)
	}
	if err := s.Dispatch(ctx, Start{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := waitStatus(t, s, "ready")
	if len(snap.Rows) != 4 || snap.ShowClearFilters {
		t.Fatalf("unexpected ready snapshot: %+v", snap)
	}

	if err := s.Dispatch(ctx, SetFilter{Field: filter.MinRevenue, Value: "300000000000"}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Dispatch(ctx, ToggleSort{Key: sorting.KeyNetIncome}); err != nil {
			t.Fatalf("sort: %v", err)
		}
	}
	snap = s.Snapshot()
	got := make([]string, len(snap.Rows))
	for i, r := range snap.Rows {
		got[i] = r.Date
	}
	want := []string{"2022-09-24", "2023-09-30", "2021-09-25"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
	if !snap.ShowClearFilters {
		t.Error("expected clear affordance with an active filter")
	}

	if err := s.Dispatch(ctx, ClearFilters{}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if snap := s.Snapshot(); len(snap.Rows) != 4 || snap.ShowClearFilters {
		t.Errorf("expected all rows after clear, got %d", len(snap.Rows))
	}
}

func TestSession_RetryKeepsFilterAndSort(t *testing.T) {
	m := &collector.MockFetcher{Responses: []collector.MockResponse{
		{Err: &collector.NetworkError{Err: errors.New("dial tcp: connection refused")}},
		{Records: collector.SampleRecords()},
	}}
	s, ctx := startSession(t, m)

	_ = s.Dispatch(ctx, Start{})
	snap := waitStatus(t, s, "error")
	if !snap.ShowError || !strings.Contains(snap.Message, "connection refused") {
		t.Fatalf("unexpected error snapshot: %+v", snap)
	}

	_ = s.Dispatch(ctx, SetFilter{Field: filter.MinDate, Value: "2021"})
	_ = s.Dispatch(ctx, ToggleSort{Key: sorting.KeyRevenue})

	if err := s.Dispatch(ctx, Retry{}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	snap = waitStatus(t, s, "ready")
	if snap.Filters[filter.MinDate] != "2021" {
		t.Errorf("filter lost across retry: %v", snap.Filters)
	}
	if snap.Sort == nil || snap.Sort.Key != sorting.KeyRevenue || snap.Sort.Direction != "asc" {
		t.Errorf("sort lost across retry: %+v", snap.Sort)
	}
	if snap.Total != 4 || len(snap.Rows) != 3 {
		t.Errorf("expected 3 of 4 rows, got %d of %d", len(snap.Rows), snap.Total)
	}
	if snap.Rows[0].Date != "2021-09-25" {
		t.Errorf("expected lowest revenue first, got %s", snap.Rows[0].Date)
	}
	if m.Calls() != 2 {
		t.Errorf("expected 2 loads, got %d", m.Calls())
	}
}

func TestSession_StartWhileLoadingIsNoop(t *testing.T) {
	m := collector.NewMockFetcher(collector.SampleRecords())
	m.Gate = make(chan struct{})
	s, ctx := startSession(t, m)

	if err := s.Dispatch(ctx, Start{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.Snapshot().Status != "loading" || !s.Snapshot().ShowLoading {
		t.Fatalf("expected loading, got %s", s.Snapshot().Status)
	}
	if err := s.Dispatch(ctx, Start{}); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("expected ErrNotApplicable, got %v", err)
	}
	if err := s.Dispatch(ctx, Retry{}); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("expected ErrNotApplicable for retry while loading, got %v", err)
	}
	// User input is still processed while the load is in flight.
	if err := s.Dispatch(ctx, TogglePanel{Panel: presenter.PanelDate}); err != nil {
		t.Fatalf("panel: %v", err)
	}
	if !s.Snapshot().Panels[presenter.PanelDate] {
		t.Error("expected date panel expanded")
	}

	close(m.Gate)
	waitStatus(t, s, "ready")
	if m.Calls() != 1 {
		t.Errorf("expected one load, got %d", m.Calls())
	}
}

func TestSession_SubscribersSeeEveryEvent(t *testing.T) {
	s, ctx := startSession(t, collector.NewMockFetcher(collector.SampleRecords()))
	seen := make(chan presenter.Snapshot, 8)
	s.Subscribe(func(snap presenter.Snapshot) { seen <- snap })

	_ = s.Dispatch(ctx, TogglePanel{Panel: presenter.PanelRevenue})
	select {
	case snap := <-seen:
		if !snap.Panels[presenter.PanelRevenue] {
			t.Error("expected revenue panel expanded in published snapshot")
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestHandleCommand(t *testing.T) {
	s, ctx := startSession(t, collector.NewMockFetcher(collector.SampleRecords()))
	_ = s.Dispatch(ctx, Start{})
	waitStatus(t, s, "ready")

	out, err := s.HandleCommand(ctx, "filter minDate 2021")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if strings.Contains(out, "2020-09-26") || !strings.Contains(out, "2021-09-25") {
		t.Errorf("unexpected table:\n%s", out)
	}

	out, _ = s.HandleCommand(ctx, "sort DATE")
	if !strings.Contains(out, "Date ▲") {
		t.Errorf("expected sort indicator:\n%s", out)
	}

	if _, err := s.HandleCommand(ctx, "clear minDate"); err != nil {
		t.Fatalf("clear field: %v", err)
	}
	if len(s.Snapshot().Filters) != 0 {
		t.Errorf("expected no filters, got %v", s.Snapshot().Filters)
	}

	errTests := []struct {
		line string
		want error
	}{
		{"bogus", ErrUnknownCommand},
		{"filter eps 3", filter.ErrUnknownField},
		{"sort eps", sorting.ErrUnsortable},
		{"panel eps", presenter.ErrUnknownPanel},
		{"retry", ErrNotApplicable},
	}
	for _, tt := range errTests {
		if _, err := s.HandleCommand(ctx, tt.line); !errors.Is(err, tt.want) {
			t.Errorf("%q: expected %v, got %v", tt.line, tt.want, err)
		}
	}

	help, err := s.HandleCommand(ctx, "help")
	if err != nil || !strings.Contains(help, "sort <column>") {
		t.Errorf("unexpected help: %q, %v", help, err)
	}
}

func TestSession_ExtremeFilterKeepsLoopResponsive(t *testing.T) {
	s, ctx := startSession(t, collector.NewMockFetcher(collector.SampleRecords()))
	_ = s.Dispatch(ctx, Start{})
	waitStatus(t, s, "ready")

	cmdCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := s.HandleCommand(cmdCtx, "filter minRevenue 1e999999999"); err != nil {
		t.Fatalf("filter: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Rows) != 0 || !snap.ShowEmpty {
		t.Errorf("expected no rows above the int64 range, got %d", len(snap.Rows))
	}
	if _, err := s.HandleCommand(cmdCtx, "filter minRevenue 1e-999999999"); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if n := len(s.Snapshot().Rows); n != 4 {
		t.Errorf("expected all 4 rows, got %d", n)
	}
}
