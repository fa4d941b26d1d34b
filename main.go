package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"onboarding-retention/pkg/calculator"
	"onboarding-retention/pkg/config"
	"onboarding-retention/pkg/database"
	"onboarding-retention/pkg/metrics"
	"onboarding-retention/pkg/models"
	"onboarding-retention/pkg/report"
	"onboarding-retention/pkg/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	settings, err := config.Load(config.Flags(), os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if settings.Verbose {
		settings.Log()
	}

	// validation avant d'ouvrir la source
	if _, err := settings.PipelineConfig(time.Now().UTC()); err != nil {
		log.Fatalf("config: %v", err)
	}

	src, closeSrc, err := openSource(settings)
	if err != nil {
		log.Fatalf("source: %v", err)
	}
	defer closeSrc()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New()
	if err := collector.Register(reg); err != nil {
		log.Fatalf("metrics: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := pipelineRun(settings, src, collector, time.Now)
	rep, err := run(ctx)
	if err != nil {
		log.Fatalf("compute: %v", err)
	}
	printReport(rep)

	if settings.Output != "" {
		now := time.Now()
		name := report.TimestampedFilename(settings.Output, "retention_"+rep.Country, now)
		if err := report.ExportJSON(name, report.NewExport(rep, now)); err != nil {
			log.Fatalf("export: %v", err)
		}
	}

	if settings.Serve != "" {
		srv := server.New(run, reg)
		srv.Publish(rep)
		if err := srv.ListenAndServe(ctx, settings.Serve); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}
}

// pipelineRun reconstruit la configuration à chaque exécution : sans --today ni
// --window-end, "today" et la fin de fenêtre suivent l'horloge (refresh du serveur).
func pipelineRun(settings *config.Settings, src calculator.RecordSource, rec calculator.Recorder, now func() time.Time) server.RunFunc {
	return func(ctx context.Context) (*models.Report, error) {
		cfg, err := settings.PipelineConfig(now().UTC())
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		return calculator.Run(ctx, src, cfg, rec)
	}
}

func openSource(s *config.Settings) (calculator.RecordSource, func(), error) {
	cols, err := s.Source.ColumnMap()
	if err != nil {
		return nil, nil, err
	}
	switch s.Source.Kind {
	case "csv":
		return &database.CSVSource{
			Path:     s.Source.CSVPath,
			Comma:    s.Source.Comma(),
			Columns:  cols,
			Progress: s.Verbose,
		}, func() {}, nil
	case "mysql", "mariadb", "postgres":
		if s.Source.DSN == "" {
			return nil, nil, fmt.Errorf("--dsn requis pour la source %s", s.Source.Kind)
		}
		db, driver, err := database.Open(s.Source.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		if s.Verbose {
			log.Printf("[INFO] connected driver=%s dsn=%s", driver, database.Redact(s.Source.DSN))
		}
		return &database.SQLSource{
			DB:       db,
			Driver:   driver,
			Table:    s.Source.Table,
			Columns:  cols,
			Progress: s.Verbose,
		}, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("source inconnue: %q", s.Source.Kind)
	}
}

// Sortie : YYYY-MM ; mono ; multi ; mono% puis résumé des courbes
func printReport(r *models.Report) {
	fmt.Printf("# %s ; records=%d ; kept=%d ; cohort=%d\n", r.Country, r.RecordsRead, r.RecordsKept, r.CohortSize)
	for _, m := range r.Monthly {
		fmt.Printf("%s ; mono=%d ; multi=%d ; mono%%=%d\n",
			calculator.FormatMonth(m.Month), m.MonoCount, m.MultiCount, m.MonoPercentRounded)
	}
	for _, s := range r.Survival {
		last := 0.0
		if n := len(s.Points); n > 0 {
			last = s.Points[n-1].CumulativePercent
		}
		fmt.Printf("survival %s ; multi_clients=%d ; reached_by_cutoff=%.1f%%\n", s.Label, s.Total, last)
	}
	if f := r.Focus; f != nil {
		fmt.Printf("focus %s ; mono=%d ; multi=%d ; mono%%=%.2f\n",
			calculator.FormatMonth(f.Month), f.MonoCount, f.MultiCount, f.MonoPercent)
		for _, b := range f.Seniority {
			fmt.Printf("  %s ; total=%d ; mono=%d ; mono%%=%.1f\n", b.Label, b.Total, b.Mono, b.MonoPercent)
		}
	}
}
