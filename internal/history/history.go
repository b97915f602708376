package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"timer-stickers/internal/generator"
	"timer-stickers/internal/logging"
)

const defaultTimeout = 5 * time.Second

// Entry is one persisted generation attempt.
type Entry struct {
	ID        int64     `json:"id"`
	Time      time.Time `json:"time"`
	Duration  int       `json:"duration"`
	Source    string    `json:"source"`
	MIME      string    `json:"mimeType,omitempty"`
	Bytes     int64     `json:"bytes"`
	HitRate   float64   `json:"hitRate"`
	ElapsedMS int64     `json:"elapsedMs"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// Stats summarizes the stored history.
type Stats struct {
	Total        int64            `json:"total"`
	Successes    int64            `json:"successes"`
	BySource     map[string]int64 `json:"bySource"`
	TotalBytes   int64            `json:"totalBytes"`
	AvgElapsedMS float64          `json:"avgElapsedMs"`
}

// Store is the SQLite-backed generation history.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the history database at dbPath. The parent
// directory must exist and be writable.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close history database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	// a single writer keeps SQLite happy under WAL
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close history database after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	logging.Info("generation history database ready at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		requested_at INTEGER NOT NULL,
		duration INTEGER NOT NULL,
		source TEXT NOT NULL,
		mime_type TEXT,
		bytes INTEGER NOT NULL DEFAULT 0,
		hit_rate REAL NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_generations_requested_at ON generations(requested_at);
	CREATE INDEX IF NOT EXISTS idx_generations_source ON generations(source);
	CREATE INDEX IF NOT EXISTS idx_generations_status ON generations(status);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// RecordGeneration stores one attempt. It satisfies the orchestrator's
// Recorder interface and therefore never returns an error; failures are
// logged and the record dropped.
func (s *Store) RecordGeneration(rec generator.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO generations (requested_at, duration, source, mime_type, bytes, hit_rate, elapsed_ms, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		rec.Time.Unix(), rec.Duration, rec.Source, rec.MIME,
		rec.Bytes, rec.HitRate, rec.Elapsed.Milliseconds(),
		rec.Status, rec.Error,
	)
	if err != nil {
		logging.Warn("failed to record generation for duration %d: %v", rec.Duration, err)
	}
}

// Recent returns the most recent entries, newest first. A limit of zero
// or less defaults to 50.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, requested_at, duration, source, mime_type, bytes, hit_rate, elapsed_ms, status, error
		FROM generations
		ORDER BY requested_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("failed to close history rows: %v", err)
		}
	}()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var requestedAt int64
		var mime, errText *string

		if err := rows.Scan(
			&e.ID, &requestedAt, &e.Duration, &e.Source, &mime,
			&e.Bytes, &e.HitRate, &e.ElapsedMS, &e.Status, &errText,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}

		e.Time = time.Unix(requestedAt, 0)
		if mime != nil {
			e.MIME = *mime
		}
		if errText != nil {
			e.Error = *errText
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetStats aggregates the stored history.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{BySource: make(map[string]int64)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(bytes), 0),
		       COALESCE(AVG(elapsed_ms), 0)
		FROM generations
	`).Scan(&stats.Total, &stats.Successes, &stats.TotalBytes, &stats.AvgElapsedMS)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source, COUNT(*) FROM generations GROUP BY source
	`)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to group history by source: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("failed to close history rows: %v", err)
		}
	}()

	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan source count: %w", err)
		}
		stats.BySource[source] = count
	}
	return stats, rows.Err()
}

// Prune deletes all but the newest keep entries and returns how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM generations
		WHERE id NOT IN (
			SELECT id FROM generations ORDER BY requested_at DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

// Close shuts the underlying database down.
func (s *Store) Close() error {
	return s.db.Close()
}
