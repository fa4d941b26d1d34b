package calculator

import (
	"context"
	"fmt"
	"log"
	"time"

	"onboarding-retention/pkg/models"
)

// RecordSource fournit un instantané des commandes (CSV, MySQL, PostgreSQL...).
type RecordSource interface {
	Load(ctx context.Context) ([]models.OrderRecord, error)
}

// Recorder reçoit les compteurs d'une exécution. nil = pas de métriques.
type Recorder interface {
	ObserveRun(r *models.Report, d time.Duration)
}

// Labels des courbes superposées.
const (
	BaselineLabel = "historique"
	CompareLabel  = "comparaison"
)

// Validate vérifie la configuration avant tout chargement.
func Validate(cfg models.Config) error {
	if cfg.Today.IsZero() {
		return fmt.Errorf("today: %w", models.ErrInvalidWindow)
	}
	if err := validWindow(cfg.Cohort.WindowStart, cfg.Cohort.WindowEnd); err != nil {
		return fmt.Errorf("cohort window: %w", err)
	}
	if monthOf(cfg.Today).Before(monthOf(cfg.Cohort.WindowStart)) {
		return fmt.Errorf("today %s avant le début de fenêtre %s: %w",
			cfg.Today.Format(time.DateOnly), cfg.Cohort.WindowStart.Format(time.DateOnly), models.ErrInvalidWindow)
	}
	if cfg.Cohort.Country == "" {
		return models.ErrMissingCountry
	}
	if err := validWindow(cfg.LatencyWindow.Start, cfg.LatencyWindow.End); err != nil {
		return fmt.Errorf("latency window: %w", err)
	}
	if !cfg.CompareWindow.IsZero() {
		if err := validWindow(cfg.CompareWindow.Start, cfg.CompareWindow.End); err != nil {
			return fmt.Errorf("compare window: %w", err)
		}
	}
	if cfg.SurvivalCutoff < 0 {
		return fmt.Errorf("%w: %d", models.ErrInvalidCutoff, cfg.SurvivalCutoff)
	}
	return nil
}

// Run charge l'instantané puis enchaîne cohorte -> mois, délais -> courbes, suivi du mois.
func Run(ctx context.Context, src RecordSource, cfg models.Config, rec Recorder) (*models.Report, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	began := time.Now()

	records, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if cfg.Verbose {
		log.Printf("[DEBUG] records lus=%d", len(records))
	}
	report, err := Compute(records, cfg)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		rec.ObserveRun(report, time.Since(began))
	}
	return report, nil
}

// Compute est la partie pure de Run : même entrée, même sortie.
func Compute(records []models.OrderRecord, cfg models.Config) (*models.Report, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	res, err := FilterCohort(records, cfg.Cohort)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		log.Printf("[DEBUG] nettoyage: gardés=%d exclus=%v cohorte=%d", len(res.Cleaned), res.Dropped, len(res.Cohort))
	}

	monthly, err := AggregateByMonth(res.Cohort, MonthRange(cfg.Cohort.WindowStart, cfg.Today))
	if err != nil {
		return nil, fmt.Errorf("monthly: %w", err)
	}

	latency, err := ExtractLatency(res.Cleaned, cfg.LatencyWindow.Start, cfg.LatencyWindow.End)
	if err != nil {
		return nil, err
	}
	cohorts := []models.LatencyCohort{{Label: BaselineLabel, Entries: latency}}

	var compare []models.LatencyEntry
	if !cfg.CompareWindow.IsZero() {
		compare, err = ExtractLatency(res.Cleaned, cfg.CompareWindow.Start, cfg.CompareWindow.End)
		if err != nil {
			return nil, err
		}
		cohorts = append(cohorts, models.LatencyCohort{Label: CompareLabel, Entries: compare})
	}
	survival, err := CompareSurvivalCurves(cfg.SurvivalCutoff, cohorts...)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		Today:          dayOf(cfg.Today),
		Country:        cfg.Cohort.Country,
		RecordsRead:    len(records),
		RecordsKept:    len(res.Cleaned),
		Dropped:        res.Dropped,
		CohortSize:     len(res.Cohort),
		Monthly:        monthly,
		Latency:        latency,
		CompareLatency: compare,
		Survival:       survival,
	}

	if !cfg.FocusMonth.IsZero() {
		focus, err := MonthFocus(res.Cohort, cfg.FocusMonth, cfg.Today)
		if err != nil {
			return nil, fmt.Errorf("focus %s: %w", FormatMonth(cfg.FocusMonth), err)
		}
		report.Focus = &focus
	}

	if cfg.Verbose {
		for _, m := range monthly {
			log.Printf("[INFO] %s -> mono=%d multi=%d mono%%=%d", FormatMonth(m.Month), m.MonoCount, m.MultiCount, m.MonoPercentRounded)
		}
	}
	return report, nil
}
