package calculator

import (
	"math"
	"sort"
	"time"

	"onboarding-retention/pkg/models"
)

// Tranches d'ancienneté, bornes hautes incluses : (0,5], (5,10], ... (20,+inf).
var seniorityBounds = []struct {
	label string
	upper int
}{
	{"0-5 jours", 5},
	{"5-10 jours", 10},
	{"10-15 jours", 15},
	{"15-20 jours", 20},
	{"> 20 jours", math.MaxInt},
}

// MonthFocus détaille un mois d'acquisition : mono/multi, répartition par
// ancienneté à la date today, et liste des clients mono-commande.
func MonthFocus(cohort []models.CohortEntry, month, today time.Time) (models.MonthFocus, error) {
	month = monthOf(month)
	focus := models.MonthFocus{
		Month:         month,
		Seniority:     make([]models.SeniorityBucket, len(seniorityBounds)),
		MonoCustomers: []models.MonoCustomer{},
	}
	for i, b := range seniorityBounds {
		focus.Seniority[i].Label = b.label
	}

	for _, c := range cohort {
		if !monthOf(c.FirstOrderMonth).Equal(month) {
			continue
		}
		if c.ActiveDays <= 0 {
			return models.MonthFocus{}, models.ErrZeroActiveDays
		}
		mono := c.ActiveDays == 1
		seniority := daysBetween(c.FirstOrderDate, today)

		b := &focus.Seniority[bucketFor(seniority)]
		b.Total++
		if mono {
			b.Mono++
			focus.MonoCount++
			focus.MonoCustomers = append(focus.MonoCustomers, models.MonoCustomer{
				CustomerID:     c.CustomerID,
				CustomerName:   c.CustomerName,
				PostalCode:     c.PostalCode,
				FirstOrderDate: c.FirstOrderDate,
				SeniorityDays:  seniority,
			})
		} else {
			focus.MultiCount++
		}
	}

	focus.MonoPercent = percent(focus.MonoCount, focus.MonoCount+focus.MultiCount)
	for i := range focus.Seniority {
		focus.Seniority[i].MonoPercent = percent(focus.Seniority[i].Mono, focus.Seniority[i].Total)
	}
	sort.Slice(focus.MonoCustomers, func(i, j int) bool {
		a, b := focus.MonoCustomers[i], focus.MonoCustomers[j]
		if a.SeniorityDays != b.SeniorityDays {
			return a.SeniorityDays < b.SeniorityDays
		}
		return a.CustomerID < b.CustomerID
	})
	return focus, nil
}

// bucketFor place une ancienneté <= 0 dans la 1ère tranche.
func bucketFor(days int) int {
	for i, b := range seniorityBounds {
		if days <= b.upper {
			return i
		}
	}
	return len(seniorityBounds) - 1
}
