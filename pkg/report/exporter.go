package report

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"onboarding-retention/pkg/models"
)

// Export est l'enveloppe écrite sur disque.
type Export struct {
	ID          string         `json:"id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Report      *models.Report `json:"report"`
}

// NewExport horodate un rapport et lui attribue un identifiant.
func NewExport(r *models.Report, at time.Time) Export {
	return Export{ID: uuid.NewString(), GeneratedAt: at.UTC(), Report: r}
}

// ExportJSON écrit data en JSON indenté, en créant le dossier si besoin.
func ExportJSON(filename string, data any) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}

	log.Printf("[INFO] exported to %s", filename)
	return nil
}

// TimestampedFilename -> <baseDir>/<name>_YYYYMMDD_HHMMSS.json
func TimestampedFilename(baseDir, name string, at time.Time) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.json", name, at.Format("20060102_150405")))
}
