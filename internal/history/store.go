package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"nvrgraph/internal/failures"
)

// Record is one rendered pipeline.
type Record struct {
	ID                int64             `json:"-"`
	RunID             string            `json:"run_id"`
	Template          string            `json:"template"`
	Device            string            `json:"device"`
	RegularChannels   int               `json:"regular_channels"`
	InferenceChannels int               `json:"inference_channels"`
	Stages            map[string]string `json:"stages"`
	Command           string            `json:"command"`
	OutputPath        string            `json:"output_path"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Channels returns the total channel count.
func (r Record) Channels() int {
	return r.RegularChannels + r.InferenceChannels
}

// NewRunID returns a fresh render identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Store persists render records in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000Z"

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, failures.Wrap(failures.ErrConfiguration, "history", "open", "paths.history_db must be set", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add stores rec. A missing RunID is generated and CreatedAt defaults to now;
// the stored record is returned.
func (s *Store) Add(ctx context.Context, rec Record) (Record, error) {
	if strings.TrimSpace(rec.RunID) == "" {
		rec.RunID = NewRunID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Millisecond)
	stages, err := json.Marshal(rec.Stages)
	if err != nil {
		return Record{}, fmt.Errorf("encode stages: %w", err)
	}

	var res sql.Result
	err = retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, `INSERT INTO renders
			(run_id, template, device, regular_channels, inference_channels, stages_json, command, output_path, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, rec.Template, rec.Device, rec.RegularChannels, rec.InferenceChannels,
			string(stages), rec.Command, rec.OutputPath, rec.CreatedAt.Format(timeLayout))
		return execErr
	})
	if err != nil {
		return Record{}, fmt.Errorf("insert render: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return Record{}, fmt.Errorf("read render id: %w", err)
	}
	return rec, nil
}

const selectColumns = `id, run_id, template, device, regular_channels, inference_channels, stages_json, command, output_path, created_at`

// List returns up to limit records, newest first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := "SELECT " + selectColumns + " FROM renders ORDER BY created_at DESC, id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renders: %w", err)
	}
	return out, nil
}

// Get returns the record whose run ID equals or uniquely starts with runID.
func (s *Store) Get(ctx context.Context, runID string) (Record, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return Record{}, failures.Wrap(failures.ErrValidation, "history", "get", "run id is required", nil)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM renders WHERE substr(run_id, 1, ?) = ? ORDER BY run_id = ? DESC LIMIT 2",
		len(runID), runID, runID)
	if err != nil {
		return Record{}, fmt.Errorf("get render: %w", err)
	}
	defer rows.Close()

	var matches []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return Record{}, err
		}
		matches = append(matches, rec)
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("iterate renders: %w", err)
	}
	switch {
	case len(matches) == 0:
		return Record{}, failures.Wrap(failures.ErrNotFound, "history", "get", fmt.Sprintf("no render with run id %q", runID), nil)
	case matches[0].RunID == runID || len(matches) == 1:
		return matches[0], nil
	default:
		return Record{}, failures.Wrap(failures.ErrValidation, "history", "get", fmt.Sprintf("run id prefix %q is ambiguous", runID), nil)
	}
}

// Prune deletes all but the newest keep records.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			"DELETE FROM renders WHERE id NOT IN (SELECT id FROM renders ORDER BY created_at DESC, id DESC LIMIT ?)", keep)
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("prune renders: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec       Record
		stages    string
		createdAt string
	)
	if err := row.Scan(&rec.ID, &rec.RunID, &rec.Template, &rec.Device, &rec.RegularChannels,
		&rec.InferenceChannels, &stages, &rec.Command, &rec.OutputPath, &createdAt); err != nil {
		return Record{}, fmt.Errorf("scan render: %w", err)
	}
	if stages != "" {
		if err := json.Unmarshal([]byte(stages), &rec.Stages); err != nil {
			return Record{}, fmt.Errorf("decode stages for %s: %w", rec.RunID, err)
		}
	}
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at for %s: %w", rec.RunID, err)
	}
	rec.CreatedAt = ts
	return rec, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
