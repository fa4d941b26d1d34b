package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"onboarding-retention/pkg/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/schollz/progressbar/v3"
)

// Drivers database/sql pris en charge.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)?$`)

// Open DSN mariadb://, mysql:// ou postgres:// → (db, driver).
// Un DSN natif MySQL est passé tel quel.
func Open(dsn string) (*sql.DB, string, error) {
	driver, native, err := toDriverDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open(driver, native)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, driver, nil
}

func toDriverDSN(dsn string) (string, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DriverPostgres, dsn, nil
	case strings.HasPrefix(dsn, "mariadb://"), strings.HasPrefix(dsn, "mysql://"):
		native, err := toMySQLDSN(dsn)
		return DriverMySQL, native, err
	default:
		return DriverMySQL, dsn, nil
	}
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplet (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// Redact masque le mot de passe d'un DSN URL pour les logs.
func Redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil || u.Scheme == "" {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// SQLSource lit l'instantané des commandes depuis une table ou vue.
type SQLSource struct {
	DB       *sql.DB
	Driver   string
	Table    string
	Columns  ColumnMap
	Progress bool
}

func (s *SQLSource) query() (string, error) {
	if !tableNameRe.MatchString(s.Table) {
		return "", fmt.Errorf("table invalide: %q", s.Table)
	}
	parts := strings.Split(s.Table, ".")
	for i, p := range parts {
		if s.Driver == DriverPostgres {
			parts[i] = `"` + p + `"`
		} else {
			parts[i] = "`" + p + "`"
		}
	}
	return "SELECT * FROM " + strings.Join(parts, "."), nil
}

// Load lit toutes les lignes ; les colonnes sont résolues par nom.
func (s *SQLSource) Load(ctx context.Context) ([]models.OrderRecord, error) {
	q, err := s.query()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.Table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	ix, err := s.Columns.resolve(cols)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", s.Table, err)
	}

	var bar *progressbar.ProgressBar
	if s.Progress {
		bar = progressbar.Default(-1, "lecture "+s.Table)
	}

	var out []models.OrderRecord
	values := make([]any, len(cols))
	pointers := make([]any, len(cols))
	for i := range values {
		pointers[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		out = append(out, ix.record(values))
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
		log.Printf("[DEBUG] %s: %d lignes lues", s.Table, len(out))
	}
	return out, nil
}
