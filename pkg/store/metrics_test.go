package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dexter/pkg/domain"
	"dexter/pkg/schema"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name, kind string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "kind" && l.GetValue() == kind {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestMetricsCountRejections(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	_ = m.reject(uniqueError("user_email_unique"))
	_ = m.reject(uniqueError("user_email_unique"))
	_ = m.reject(fkError(schema.Messages, "sender_id"))
	_ = m.reject(ErrNotFound)
	_ = m.reject(errors.New("boom"))

	if got := counterValue(t, reg, "dexter_store_rejections_total", "conflict"); got != 2 {
		t.Fatalf("conflict = %v, want 2", got)
	}
	if got := counterValue(t, reg, "dexter_store_rejections_total", "foreign_key"); got != 1 {
		t.Fatalf("foreign_key = %v, want 1", got)
	}
	if got := counterValue(t, reg, "dexter_store_rejections_total", "check"); got != 0 {
		t.Fatalf("check = %v, want 0", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	err := m.reject(ErrConflict)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("reject should return its input, got %v", err)
	}
	m.observeTx(time.Now())

	s := NewMemoryStore()
	if _, err := s.CreateUser(context.Background(), domain.User{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty email: expected invalid input, got %v", err)
	}
}
