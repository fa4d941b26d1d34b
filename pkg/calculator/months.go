package calculator

import (
	"fmt"
	"time"

	"onboarding-retention/pkg/models"
)

// ParseMonth("YYYY-MM") -> 1er jour du mois UTC
func ParseMonth(yyyymm string) (time.Time, error) {
	if len(yyyymm) != 7 || yyyymm[4] != '-' {
		return time.Time{}, fmt.Errorf("format attendu YYYY-MM (ex: 2024-09)")
	}
	t, err := time.Parse("2006-01", yyyymm)
	if err != nil {
		return time.Time{}, fmt.Errorf("mois invalide: %w", err)
	}
	return t, nil
}

// MonthRange renvoie chaque mois de start à end inclus, dans l'ordre chronologique.
func MonthRange(start, end time.Time) []time.Time {
	cur := monthOf(start)
	last := monthOf(end)
	var out []time.Time
	for !cur.After(last) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

// FormatMonth -> "YYYY-MM"
func FormatMonth(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// dayOf tronque à la date calendaire (fuseau de t), exprimée en UTC.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// daysBetween compte les jours entiers entre deux dates calendaires.
func daysBetween(from, to time.Time) int {
	return int(dayOf(to).Sub(dayOf(from)).Hours() / 24)
}

// inWindow compare sur les dates calendaires, bornes incluses.
func inWindow(t, start, end time.Time) bool {
	d := dayOf(t)
	return !d.Before(dayOf(start)) && !d.After(dayOf(end))
}

func validWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: borne absente", models.ErrInvalidWindow)
	}
	if dayOf(end).Before(dayOf(start)) {
		return fmt.Errorf("%w: fin %s < début %s", models.ErrInvalidWindow, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return nil
}
