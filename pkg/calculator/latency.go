package calculator

import (
	"fmt"
	"sort"
	"time"

	"onboarding-retention/pkg/models"
)

// ExtractLatency calcule, pour chaque client dont la 1ère commande est dans
// [start ; end], l'écart en jours entre ses deux premiers jours de commande
// distincts. Les clients avec un seul jour distinct sont ignorés.
func ExtractLatency(records []models.OrderRecord, start, end time.Time) ([]models.LatencyEntry, error) {
	if err := validWindow(start, end); err != nil {
		return nil, fmt.Errorf("latency window: %w", err)
	}

	days := map[string]map[time.Time]struct{}{}
	for _, r := range records {
		if r.CustomerID == "" || r.OrderDate.IsZero() || r.FirstOrderDate.IsZero() {
			continue
		}
		if !inWindow(r.FirstOrderDate, start, end) {
			continue
		}
		addDay(days, r)
	}

	out := make([]models.LatencyEntry, 0, len(days))
	for id, set := range days {
		if len(set) < 2 {
			continue
		}
		first, second := twoEarliest(set)
		out = append(out, models.LatencyEntry{
			CustomerID:        id,
			FirstOrderDay:     first,
			SecondOrderDay:    second,
			DaysToSecondOrder: daysBetween(first, second),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out, nil
}

// twoEarliest suppose len(set) >= 2.
func twoEarliest(set map[time.Time]struct{}) (time.Time, time.Time) {
	var first, second time.Time
	for d := range set {
		switch {
		case first.IsZero() || d.Before(first):
			first, second = d, first
		case second.IsZero() || d.Before(second):
			second = d
		}
	}
	return first, second
}
