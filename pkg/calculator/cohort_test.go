package calculator

import (
	"errors"
	"testing"
	"time"

	"onboarding-retention/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

// order : commande FR valide par défaut.
func order(id string, orderDate, first time.Time) models.OrderRecord {
	return models.OrderRecord{
		CustomerID:     id,
		CustomerName:   "Resto " + id,
		PostalCode:     "75001",
		OrderDate:      orderDate,
		FirstOrderDate: first,
		Country:        "FR",
		OrderStatus:    "DELIVERED",
		PaymentStatus:  "PAID",
		Channel:        "app",
	}
}

// scenarioA : X mono, Y multi (15 j), Z multi (5 j, deux commandes le même jour).
func scenarioA() []models.OrderRecord {
	return []models.OrderRecord{
		order("X", at(2024, 1, 5, 12), date(2024, 1, 5)),
		order("Y", at(2024, 1, 5, 9), date(2024, 1, 5)),
		order("Y", at(2024, 1, 20, 19), date(2024, 1, 5)),
		order("Z", at(2024, 1, 10, 11), date(2024, 1, 10)),
		order("Z", at(2024, 1, 10, 20), date(2024, 1, 10)),
		order("Z", at(2024, 1, 15, 13), date(2024, 1, 10)),
	}
}

func defaultParams() models.CohortParams {
	return models.CohortParams{
		Country:                "FR",
		WindowStart:            date(2024, 1, 1),
		WindowEnd:              date(2024, 12, 31),
		ExcludeOrderStatuses:   []string{"CANCELLED", "ABANDONED", "FAILED", "WAITING"},
		ExcludePaymentStatuses: []string{"CANCELLED", "ERROR"},
		ExcludeChannel:         "trading",
	}
}

func cohortByID(entries []models.CohortEntry) map[string]models.CohortEntry {
	out := make(map[string]models.CohortEntry, len(entries))
	for _, e := range entries {
		out[e.CustomerID] = e
	}
	return out
}

func TestFilterCohort_ScenarioA(t *testing.T) {
	res, err := FilterCohort(scenarioA(), defaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Cleaned) != 6 {
		t.Fatalf("cleaned=%d, want 6", len(res.Cleaned))
	}
	got := cohortByID(res.Cohort)
	want := map[string]int{"X": 1, "Y": 2, "Z": 2}
	if len(got) != len(want) {
		t.Fatalf("cohort=%v, want %v", got, want)
	}
	for id, days := range want {
		if got[id].ActiveDays != days {
			t.Fatalf("%s active_days=%d, want %d", id, got[id].ActiveDays, days)
		}
		if !got[id].FirstOrderMonth.Equal(date(2024, 1, 1)) {
			t.Fatalf("%s month=%v", id, got[id].FirstOrderMonth)
		}
	}
	// tri : date de 1ère commande puis id
	if res.Cohort[0].CustomerID != "X" || res.Cohort[1].CustomerID != "Y" || res.Cohort[2].CustomerID != "Z" {
		t.Fatalf("unexpected order: %v", res.Cohort)
	}
}

func TestFilterCohort_CancelledOnlyCustomerExcluded(t *testing.T) {
	c := order("C", at(2024, 2, 1, 12), date(2024, 2, 1))
	c.OrderStatus = "CANCELLED"
	records := append(scenarioA(), c)

	res, err := FilterCohort(records, defaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cohortByID(res.Cohort)["C"]; ok {
		t.Fatal("cancelled-only customer must not be in the cohort")
	}
	if res.Dropped[models.DropOrderStatus] != 1 {
		t.Fatalf("dropped=%v", res.Dropped)
	}
	for _, e := range res.Cohort {
		if e.ActiveDays < 1 {
			t.Fatalf("%s has %d active days", e.CustomerID, e.ActiveDays)
		}
	}
}

func TestFilterCohort_Exclusions(t *testing.T) {
	first := date(2024, 3, 1)
	payment := order("P", at(2024, 3, 1, 10), first)
	payment.PaymentStatus = "ERROR"
	channel := order("T", at(2024, 3, 1, 10), first)
	channel.Channel = "Bulk TRADING desk"
	country := order("B", at(2024, 3, 1, 10), first)
	country.Country = "BE"
	noFirst := order("N", at(2024, 3, 1, 10), time.Time{})
	noID := order("", at(2024, 3, 1, 10), first)
	early := order("E", at(2023, 12, 20, 10), date(2023, 12, 20))
	anomaly := order("A", at(2024, 2, 27, 10), first)
	lower := order("L", at(2024, 3, 1, 10), first)
	lower.Country = "fr"

	res, err := FilterCohort([]models.OrderRecord{payment, channel, country, noFirst, noID, early, anomaly, lower}, defaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Cohort) != 1 || res.Cohort[0].CustomerID != "L" {
		t.Fatalf("cohort=%v, want only L", res.Cohort)
	}
	want := map[models.DropReason]int{
		models.DropPaymentStatus: 1,
		models.DropChannel:       1,
		models.DropCountry:       1,
		models.DropMissingDate:   1,
		models.DropMissingID:     1,
		models.DropOutsideWindow: 1,
		models.DropBeforeFirst:   1,
	}
	for reason, n := range want {
		if res.Dropped[reason] != n {
			t.Fatalf("dropped[%s]=%d, want %d (all=%v)", reason, res.Dropped[reason], n, res.Dropped)
		}
	}
}

func TestFilterCohort_FirstOrderOutsideWindow(t *testing.T) {
	// 1ère commande en 2023, commandes en 2024 : hors cohorte
	old := order("O", at(2024, 1, 15, 10), date(2023, 11, 2))
	res, err := FilterCohort([]models.OrderRecord{old}, defaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Cleaned) != 1 {
		t.Fatalf("cleaned=%d, want 1", len(res.Cleaned))
	}
	if len(res.Cohort) != 0 {
		t.Fatalf("cohort=%v, want empty", res.Cohort)
	}
}

func TestFilterCohort_WindowBoundsInclusive(t *testing.T) {
	p := defaultParams()
	p.WindowEnd = date(2024, 1, 31)
	records := []models.OrderRecord{
		order("S", at(2024, 1, 1, 0), date(2024, 1, 1)),
		order("E", at(2024, 1, 31, 23), date(2024, 1, 31)),
		order("F", at(2024, 2, 1, 0), date(2024, 2, 1)),
	}
	res, err := FilterCohort(records, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := cohortByID(res.Cohort)
	if _, ok := got["S"]; !ok {
		t.Fatal("start bound must be included")
	}
	if _, ok := got["E"]; !ok {
		t.Fatal("end bound must be included")
	}
	if _, ok := got["F"]; ok {
		t.Fatal("day after end must be excluded")
	}
}

func TestFilterCohort_ActiveDaysScope(t *testing.T) {
	p := defaultParams()
	p.WindowEnd = date(2024, 1, 31)
	records := []models.OrderRecord{
		order("M", at(2024, 1, 10, 10), date(2024, 1, 10)),
		order("M", at(2024, 2, 10, 10), date(2024, 1, 10)),
	}

	res, err := FilterCohort(records, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Cohort[0].ActiveDays; got != 2 {
		t.Fatalf("scope all: active_days=%d, want 2", got)
	}

	p.Scope = models.ScopeWindow
	res, err = FilterCohort(records, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Cohort[0].ActiveDays; got != 1 {
		t.Fatalf("scope window: active_days=%d, want 1", got)
	}
}

func TestFilterCohort_ConfigErrors(t *testing.T) {
	p := defaultParams()
	p.WindowEnd = date(2023, 1, 1)
	if _, err := FilterCohort(nil, p); !errors.Is(err, models.ErrInvalidWindow) {
		t.Fatalf("got %v, want ErrInvalidWindow", err)
	}

	p = defaultParams()
	p.Country = "  "
	if _, err := FilterCohort(nil, p); !errors.Is(err, models.ErrMissingCountry) {
		t.Fatalf("got %v, want ErrMissingCountry", err)
	}

	p = defaultParams()
	p.Scope = "weekly"
	if _, err := FilterCohort(nil, p); err == nil {
		t.Fatal("expected error for unknown scope")
	}
}

func TestFilterCohort_Idempotent(t *testing.T) {
	a, err := FilterCohort(scenarioA(), defaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := FilterCohort(scenarioA(), defaultParams())
	if len(a.Cohort) != len(b.Cohort) {
		t.Fatalf("len %d != %d", len(a.Cohort), len(b.Cohort))
	}
	for i := range a.Cohort {
		if a.Cohort[i] != b.Cohort[i] {
			t.Fatalf("entry %d differs: %v vs %v", i, a.Cohort[i], b.Cohort[i])
		}
	}
}
