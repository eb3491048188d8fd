package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"IncomeLens/internal/config"
)

// lockedBuffer lets the test read what the command loop has written so far.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func mockConfig() *config.Config {
	cfg := &config.Config{}
	cfg.DataSource.Mock = true
	cfg.DataSource.Symbol = "AAPL"
	cfg.DataSource.Period = "annual"
	return cfg
}

func waitOutput(t *testing.T, out *lockedBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in:\n%s", want, out.String())
}

func TestServe_CommandLine(t *testing.T) {
	inR, inW := io.Pipe()
	out := &lockedBuffer{}
	errCh := make(chan error, 1)
	go func() { errCh <- serve(context.Background(), mockConfig(), zap.NewNop(), inR, out) }()

	// The ready notice arrives without any command.
	waitOutput(t, out, "4 of 4 records")

	if _, err := io.WriteString(inW, "sort date\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitOutput(t, out, "Date ▲")

	inW.Close()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after stdin closed")
	}
}

func TestServe_ReturnsSetupErrors(t *testing.T) {
	badCron := mockConfig()
	badCron.Schedule.AutoRetryCron = "every tuesday"

	badAddr := mockConfig()
	badAddr.Server.ListenAddr = "127.0.0.1:99999"

	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{"invalid schedule", badCron, "auto-retry"},
		{"listen failure", badAddr, "http server"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errCh := make(chan error, 1)
			go func() { errCh <- serve(context.Background(), tt.cfg, zap.NewNop(), strings.NewReader(""), io.Discard) }()
			select {
			case err := <-errCh:
				if err == nil || !strings.Contains(err.Error(), tt.want) {
					t.Errorf("expected error containing %q, got %v", tt.want, err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("serve did not return")
			}
		})
	}
}
