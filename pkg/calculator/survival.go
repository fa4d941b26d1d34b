package calculator

import (
	"fmt"
	"sort"

	"onboarding-retention/pkg/models"
)

// DefaultSurvivalCutoff borne la courbe à 60 jours.
const DefaultSurvivalCutoff = 60

// BuildSurvivalCurve transforme une table de délais en pourcentage cumulé de
// clients ayant passé leur 2e commande au jour N (N <= cutoffDays). Le
// dénominateur est la table complète, délais au-delà du seuil compris.
// Une table vide donne une courbe vide.
func BuildSurvivalCurve(entries []models.LatencyEntry, cutoffDays int) ([]models.SurvivalPoint, error) {
	if cutoffDays < 0 {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidCutoff, cutoffDays)
	}
	points := []models.SurvivalPoint{}
	if len(entries) == 0 {
		return points, nil
	}

	counts := map[int]int{}
	for _, e := range entries {
		if e.DaysToSecondOrder <= cutoffDays {
			counts[e.DaysToSecondOrder]++
		}
	}
	days := make([]int, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Ints(days)

	total := len(entries)
	cum := 0
	for _, d := range days {
		cum += counts[d]
		points = append(points, models.SurvivalPoint{
			Day:               d,
			Count:             counts[d],
			CumulativeCount:   cum,
			CumulativePercent: percent(cum, total),
		})
	}
	return points, nil
}

// CompareSurvivalCurves construit une courbe étiquetée par cohorte, pour superposition
// (ex: historique vs mois récent).
func CompareSurvivalCurves(cutoffDays int, cohorts ...models.LatencyCohort) ([]models.SurvivalSeries, error) {
	out := make([]models.SurvivalSeries, 0, len(cohorts))
	for _, c := range cohorts {
		points, err := BuildSurvivalCurve(c.Entries, cutoffDays)
		if err != nil {
			return nil, fmt.Errorf("survival %q: %w", c.Label, err)
		}
		out = append(out, models.SurvivalSeries{Label: c.Label, Total: len(c.Entries), Points: points})
	}
	return out, nil
}
