package database

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"onboarding-retention/pkg/models"

	"github.com/schollz/progressbar/v3"
)

// CSVSource lit un export tabulaire (ex: prepared_data.csv).
type CSVSource struct {
	Path     string
	Comma    rune // ',' par défaut
	Columns  ColumnMap
	Progress bool
}

// Load ouvre le fichier et délègue à ReadCSV.
func (s *CSVSource) Load(ctx context.Context) ([]models.OrderRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if s.Progress {
		size := int64(-1)
		if st, err := f.Stat(); err == nil {
			size = st.Size()
		}
		bar := progressbar.DefaultBytes(size, "lecture "+s.Path)
		defer bar.Finish()
		r = io.TeeReader(f, bar)
	}
	return ReadCSV(ctx, r, s.Comma, s.Columns)
}

// ReadCSV décode un flux CSV avec en-tête. Une colonne obligatoire absente est fatale.
func ReadCSV(ctx context.Context, r io.Reader, comma rune, cols ColumnMap) ([]models.OrderRecord, error) {
	cr := csv.NewReader(r)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: fichier vide", models.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	ix, err := cols.resolve(header)
	if err != nil {
		return nil, err
	}

	var out []models.OrderRecord
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv ligne %d: %w", line, err)
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
		}
		out = append(out, ix.record(values))
	}
	return out, nil
}
