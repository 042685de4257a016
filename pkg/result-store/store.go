// Package resultstore keeps a journal of warmup results, grouped by round.
package resultstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Store is implemented by journal backends.
// Implementations must be thread-safe!
type Store interface {
	// Put records one result. A second entry with the same request UUID
	// replaces the first.
	Put(ctx context.Context, e Entry) error
	// Round returns the entries of a round in the order they were recorded.
	Round(ctx context.Context, roundID int64) ([]Entry, error)
	// Summarize counts the outcomes of a round.
	Summarize(ctx context.Context, roundID int64) (Summary, error)
	Close() error
}

type Entry struct {
	RoundID     int64
	RequestUUID string
	TargetURL   string
	// EngineStatus is the HTTP status of the engine response,
	// OriginStatus the status the target answered with (0 if never reached).
	EngineStatus int
	OriginStatus int
	CacheStatus  string
	ErrorReason  string
	RecordedAt   time.Time
	// Result is the flat result document as returned by the engine.
	Result []byte
}

type Summary struct {
	Total  int
	Hits   int
	Misses int
	Errors int
}

// Add counts e as an error if it has an error reason, otherwise as a hit
// or a miss by its cache status.
func (s *Summary) Add(e Entry) {
	s.Total++
	switch {
	case e.ErrorReason != "":
		s.Errors++
	case IsHit(e.CacheStatus):
		s.Hits++
	default:
		s.Misses++
	}
}

// IsHit reports whether a CDN cache status denotes a hit, e.g. "HIT",
// "TCP_HIT" or "Hit from cloudfront".
func IsHit(cacheStatus string) bool {
	s := strings.ToUpper(cacheStatus)
	return strings.Contains(s, "HIT") && !strings.Contains(s, "MISS")
}

type SQLiteStore struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLiteStore opens the journal with the given filename as the db.
// If file name is empty, a new in-memory db is opened.
func NewSQLiteStore(filename string) (*SQLiteStore, error) {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, err
	}
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS results (
			request_uuid TEXT PRIMARY KEY,
			round_id INTEGER,
			target_url TEXT,
			engine_status INTEGER,
			origin_status INTEGER,
			cache_status TEXT,
			error_reason TEXT,
			recorded_at INTEGER,
			result BLOB
		)`,
		"CREATE INDEX IF NOT EXISTS round_idx ON results (round_id)",
		"PRAGMA journal_mode=WAL",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing journal: %w", err)
		}
	}
	return &SQLiteStore{
		db:         db,
		writeMutex: &sync.Mutex{},
	}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, e Entry) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO results
		(request_uuid, round_id, target_url, engine_status, origin_status, cache_status, error_reason, recorded_at, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestUUID, e.RoundID, e.TargetURL, e.EngineStatus, e.OriginStatus,
		e.CacheStatus, e.ErrorReason, e.RecordedAt.UnixNano(), e.Result)
	return err
}

func (s *SQLiteStore) Round(ctx context.Context, roundID int64) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		request_uuid, round_id, target_url, engine_status, origin_status, cache_status, error_reason, recorded_at, result
		FROM results WHERE round_id = ? ORDER BY recorded_at, rowid`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var recorded int64
		if err := rows.Scan(&e.RequestUUID, &e.RoundID, &e.TargetURL, &e.EngineStatus, &e.OriginStatus,
			&e.CacheStatus, &e.ErrorReason, &recorded, &e.Result); err != nil {
			return entries, err
		}
		e.RecordedAt = time.Unix(0, recorded)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Summarize(ctx context.Context, roundID int64) (Summary, error) {
	var sum Summary
	entries, err := s.Round(ctx, roundID)
	if err != nil {
		return sum, err
	}
	for _, e := range entries {
		sum.Add(e)
	}
	return sum, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
