package health

import (
	"context"
	"errors"
	"testing"
)

type mockChecker struct{ err error }

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockStats struct {
	docs   int
	chunks int
	err    error
}

func (m *mockStats) Stats(_ string) (int, int, error) { return m.docs, m.chunks, m.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockChecker{}, &mockPinger{}, &mockStats{docs: 3, chunks: 40},
		"text-embedding-3-small", "openai", "__DEFAULT__")

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Fatalf("expected ok, got %s", report.Status)
	}
	if !report.DefaultIndexLoaded {
		t.Error("expected default index loaded")
	}
	if report.Warning != "" {
		t.Errorf("unexpected warning: %q", report.Warning)
	}
	if report.EmbeddingModel != "text-embedding-3-small" || report.EmbeddingProvider != "openai" {
		t.Errorf("identity fields wrong: %+v", report)
	}
}

func TestCheck_EmbeddingDown(t *testing.T) {
	svc := New(&mockChecker{err: errors.New("unreachable")}, nil, &mockStats{docs: 1},
		"m", "p", "__DEFAULT__")

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Fatalf("expected degraded, got %s", report.Status)
	}
	if report.Checks["embedding"] != CheckError {
		t.Errorf("expected embedding check error, got %s", report.Checks["embedding"])
	}
	if report.Warning == "" {
		t.Error("expected a warning")
	}
}

func TestCheck_EmptyDefaultIndexWarns(t *testing.T) {
	svc := New(&mockChecker{}, nil, &mockStats{}, "m", "p", "__DEFAULT__")

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Fatalf("empty default index should not degrade, got %s", report.Status)
	}
	if report.DefaultIndexLoaded {
		t.Error("expected defaultIndexLoaded=false")
	}
	if report.Warning == "" {
		t.Error("expected a warning about the empty default index")
	}
}

func TestCheck_CorruptDefaultIndexDegrades(t *testing.T) {
	svc := New(&mockChecker{}, nil, &mockStats{err: errors.New("corrupted")}, "m", "p", "__DEFAULT__")

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Fatalf("expected degraded, got %s", report.Status)
	}
	if report.Checks["default_index"] != CheckError {
		t.Errorf("expected default_index check error")
	}
}

func TestCheck_NilOptionalComponents(t *testing.T) {
	svc := New(nil, nil, &mockStats{docs: 1}, "m", "p", "__DEFAULT__")

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Fatalf("expected ok, got %s", report.Status)
	}
	if _, ok := report.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when checker is nil")
	}
	if _, ok := report.Checks["cache"]; ok {
		t.Error("cache check should be absent when pinger is nil")
	}
}
