package calculator

import (
	"errors"
	"testing"

	"onboarding-retention/pkg/models"
)

func TestAggregateByMonth_ScenarioA(t *testing.T) {
	res, err := FilterCohort(scenarioA(), defaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	months := MonthRange(date(2024, 1, 1), date(2024, 3, 15))
	got, err := AggregateByMonth(res.Cohort, months)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	jan := got[0]
	if jan.MonoCount != 1 || jan.MultiCount != 2 || jan.MonoPercentRounded != 33 {
		t.Fatalf("january = %+v, want mono=1 multi=2 pct=33", jan)
	}
	if jan.MonoPercent < 33.33 || jan.MonoPercent > 33.34 {
		t.Fatalf("mono_percent=%f", jan.MonoPercent)
	}
	for _, m := range got[1:] {
		if m.MonoCount != 0 || m.MultiCount != 0 || m.MonoPercent != 0 {
			t.Fatalf("empty month %s = %+v", FormatMonth(m.Month), m)
		}
	}
}

func TestAggregateByMonth_ChronologicalAndCounts(t *testing.T) {
	cohort := []models.CohortEntry{
		{CustomerID: "a", FirstOrderMonth: date(2024, 3, 1), ActiveDays: 1},
		{CustomerID: "b", FirstOrderMonth: date(2024, 1, 1), ActiveDays: 4},
		{CustomerID: "c", FirstOrderMonth: date(2024, 3, 1), ActiveDays: 2},
		{CustomerID: "d", FirstOrderMonth: date(2024, 3, 1), ActiveDays: 1},
		{CustomerID: "e", FirstOrderMonth: date(2025, 1, 1), ActiveDays: 1}, // hors plage
	}
	months := MonthRange(date(2024, 1, 1), date(2024, 4, 1))
	got, err := AggregateByMonth(cohort, months)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	perMonth := map[string]int{}
	for _, c := range cohort {
		perMonth[FormatMonth(c.FirstOrderMonth)]++
	}
	for i, m := range got {
		if i > 0 && !got[i-1].Month.Before(m.Month) {
			t.Fatalf("rows not chronological at %d", i)
		}
		if n := m.MonoCount + m.MultiCount; n != perMonth[FormatMonth(m.Month)] {
			t.Fatalf("%s: mono+multi=%d, want %d", FormatMonth(m.Month), n, perMonth[FormatMonth(m.Month)])
		}
		if m.MonoPercent < 0 || m.MonoPercent > 100 {
			t.Fatalf("%s: mono_percent=%f out of range", FormatMonth(m.Month), m.MonoPercent)
		}
	}
	mar := got[2]
	if mar.MonoCount != 2 || mar.MultiCount != 1 || mar.MonoPercentRounded != 67 {
		t.Fatalf("march = %+v", mar)
	}
}

func TestAggregateByMonth_ZeroActiveDays(t *testing.T) {
	cohort := []models.CohortEntry{{CustomerID: "z", FirstOrderMonth: date(2024, 1, 1), ActiveDays: 0}}
	_, err := AggregateByMonth(cohort, MonthRange(date(2024, 1, 1), date(2024, 1, 1)))
	if !errors.Is(err, models.ErrZeroActiveDays) {
		t.Fatalf("got %v, want ErrZeroActiveDays", err)
	}
}

func TestAggregateByMonth_Empty(t *testing.T) {
	got, err := AggregateByMonth(nil, MonthRange(date(2024, 1, 1), date(2024, 6, 30)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("got %d rows, want 6", len(got))
	}
	for _, m := range got {
		if m.MonoCount+m.MultiCount != 0 || m.MonoPercent != 0 || m.MonoPercentRounded != 0 {
			t.Fatalf("non-zero row %+v", m)
		}
	}
}

func TestRoundPercent_HalfEven(t *testing.T) {
	cases := map[float64]int{
		33.333: 33,
		66.667: 67,
		50.5:   50,
		12.5:   12,
		0:      0,
		100:    100,
	}
	for in, want := range cases {
		if got := roundPercent(in); got != want {
			t.Fatalf("roundPercent(%v)=%d, want %d", in, got, want)
		}
	}
}
