package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/bikeshare/internal/models"
)

const dateLayout = "2006-01-02"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) a SQLite database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	s := New(db)
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceRecords swaps the stored dataset for records in a single transaction
// and notes the import against source.
func (s *Store) ReplaceRecords(ctx context.Context, source string, records []models.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (date, hour, working_day, holiday, weathersit, cnt_day, casual_day, registered_day, cnt_hour, casual_hour, registered_hour, feel_temp, humidity, windspeed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Date.Format(dateLayout), r.Hour, r.WorkingDay, r.Holiday, r.WeatherSit,
			r.CountDay, r.CasualDay, r.RegisteredDay, r.CountHour, r.CasualHour, r.RegisteredHour,
			r.FeelTemp, r.Humidity, r.WindSpeed); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO imports (source, row_count, imported_at) VALUES (?, ?, ?)`,
		source, len(records), time.Now().UTC()); err != nil {
		return fmt.Errorf("record import: %w", err)
	}

	return tx.Commit()
}

// Records returns every stored row ordered by date then hour.
func (s *Store) Records(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, hour, working_day, holiday, weathersit, cnt_day, casual_day, registered_day, cnt_hour, casual_hour, registered_hour, feel_temp, humidity, windspeed
		FROM records
		ORDER BY date ASC, hour ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var (
			r    models.Record
			date string
		)
		if err := rows.Scan(&date, &r.Hour, &r.WorkingDay, &r.Holiday, &r.WeatherSit,
			&r.CountDay, &r.CasualDay, &r.RegisteredDay, &r.CountHour, &r.CasualHour, &r.RegisteredHour,
			&r.FeelTemp, &r.Humidity, &r.WindSpeed); err != nil {
			return nil, err
		}
		d, err := parseDate(date)
		if err != nil {
			return nil, err
		}
		r.Date = d
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) RecordCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

// DateBounds returns the earliest and latest stored dates. ok is false when empty.
func (s *Store) DateBounds(ctx context.Context) (r models.DateRange, ok bool, err error) {
	var minDate, maxDate sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(date), MAX(date) FROM records`).Scan(&minDate, &maxDate); err != nil {
		return r, false, err
	}
	if !minDate.Valid || !maxDate.Valid {
		return r, false, nil
	}
	if r.Start, err = parseDate(minDate.String); err != nil {
		return r, false, err
	}
	if r.End, err = parseDate(maxDate.String); err != nil {
		return r, false, err
	}
	return r, true, nil
}

// LastImport describes the most recent ReplaceRecords call.
type LastImport struct {
	Source     string
	Rows       int
	ImportedAt time.Time
}

func (s *Store) LastImport(ctx context.Context) (*LastImport, error) {
	var li LastImport
	err := s.db.QueryRowContext(ctx, `SELECT source, row_count, imported_at FROM imports ORDER BY id DESC LIMIT 1`).
		Scan(&li.Source, &li.Rows, &li.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &li, nil
}

// modernc returns DATE columns as either text or time depending on how they
// were written, so accept both forms.
func parseDate(s string) (time.Time, error) {
	if len(s) >= len(dateLayout) {
		if t, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse stored date %q", s)
}
