package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"onboarding-retention/pkg/models"
)

func TestCollector_ObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New()
	if err := c.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	r := &models.Report{
		RecordsRead: 10,
		RecordsKept: 7,
		Dropped:     map[models.DropReason]int{models.DropOrderStatus: 2, models.DropChannel: 1},
		CohortSize:  4,
		Survival:    []models.SurvivalSeries{{Label: "historique", Total: 3}},
	}
	c.ObserveRun(r, 250*time.Millisecond)
	c.ObserveRun(r, 250*time.Millisecond)

	if got := testutil.ToFloat64(c.RecordsRead); got != 20 {
		t.Fatalf("records read = %v, want 20", got)
	}
	if got := testutil.ToFloat64(c.RecordsDropped.WithLabelValues("order_status")); got != 4 {
		t.Fatalf("dropped order_status = %v, want 4", got)
	}
	if got := testutil.ToFloat64(c.CohortCustomers); got != 4 {
		t.Fatalf("cohort gauge = %v, want 4", got)
	}
	if got := testutil.ToFloat64(c.LatencyEntries.WithLabelValues("historique")); got != 3 {
		t.Fatalf("latency gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.RunsTotal); got != 2 {
		t.Fatalf("runs = %v, want 2", got)
	}
}

func TestCollector_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := New().Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := New().Register(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
