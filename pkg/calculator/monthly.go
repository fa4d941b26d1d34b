package calculator

import (
	"fmt"
	"time"

	"onboarding-retention/pkg/models"

	"github.com/shopspring/decimal"
)

// AggregateByMonth classe chaque client de la cohorte en mono (1 jour actif) ou
// multi (>1) et compte par mois de 1ère commande. Une ligne par mois de months,
// même vide, dans l'ordre reçu.
func AggregateByMonth(cohort []models.CohortEntry, months []time.Time) ([]models.MonthlySummary, error) {
	idx := make(map[time.Time]int, len(months))
	out := make([]models.MonthlySummary, len(months))
	for i, m := range months {
		m = monthOf(m)
		idx[m] = i
		out[i].Month = m
	}

	for _, c := range cohort {
		if c.ActiveDays <= 0 {
			return nil, fmt.Errorf("%w: client %s (%d)", models.ErrZeroActiveDays, c.CustomerID, c.ActiveDays)
		}
		i, ok := idx[monthOf(c.FirstOrderMonth)]
		if !ok {
			continue
		}
		if c.ActiveDays == 1 {
			out[i].MonoCount++
		} else {
			out[i].MultiCount++
		}
	}

	for i := range out {
		out[i].MonoPercent = percent(out[i].MonoCount, out[i].MonoCount+out[i].MultiCount)
		out[i].MonoPercentRounded = roundPercent(out[i].MonoPercent)
	}
	return out, nil
}

// percent vaut 0 quand le dénominateur est nul.
func percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// roundPercent arrondit au pair le plus proche (50.5 -> 50).
func roundPercent(p float64) int {
	return int(decimal.NewFromFloat(p).RoundBank(0).IntPart())
}
