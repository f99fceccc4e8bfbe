package policy

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	_ "modernc.org/sqlite"
)

// State represents the clause store's index lifecycle state
type State int

const (
	StateAbsent State = iota
	StateLoading
	StateValidCache
	StateStaleCache
	StateBuilding
	StateReady
	StateFailed
)

// String returns the state name for logging
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateLoading:
		return "loading"
	case StateValidCache:
		return "valid_cache"
	case StateStaleCache:
		return "stale_cache"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Store owns the policy clause corpus and its persisted vector index. The
// index is built or validated exactly once per process; Initialize is the
// initialization barrier and all requests must wait for it before querying.
// After a successful Initialize the store is read-only and safe for
// concurrent use.
type Store struct {
	policiesDir string
	indexPath   string
	embedder    Embedder
	logger      *slog.Logger

	initOnce sync.Once
	initErr  error

	mu      sync.RWMutex
	state   State
	index   *Index
	clauses []Clause
}

// NewStore creates a clause store over a policy corpus directory and a
// persisted index location. No I/O happens until Initialize is called.
func NewStore(policiesDir, indexPath string, embedder Embedder, logger *slog.Logger) (*Store, error) {
	if policiesDir == "" {
		return nil, fmt.Errorf("policies directory cannot be empty")
	}

	if indexPath == "" {
		return nil, fmt.Errorf("index path cannot be empty")
	}

	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}

	return &Store{
		policiesDir: policiesDir,
		indexPath:   indexPath,
		embedder:    embedder,
		logger:      logger,
		state:       StateAbsent,
	}, nil
}

// Initialize runs the index lifecycle state machine once per process:
// load the persisted index if present, validate its per-clause shape,
// rebuild from the corpus on a stale cache, and fail if the corpus yields
// zero clauses. Subsequent calls return the first call's result.
func (s *Store) Initialize(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.initialize(ctx)
	})
	return s.initErr
}

func (s *Store) initialize(ctx context.Context) error {
	// The verbatim corpus is always parsed from the documents, independent of
	// index cache validity: AllClauses must reflect the files on disk.
	clauses, err := ParseCorpusDir(s.policiesDir)
	if err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("failed to parse policy corpus: %w", err)
	}

	s.mu.Lock()
	s.clauses = clauses
	s.mu.Unlock()

	if _, err := os.Stat(s.indexPath); err == nil {
		s.setState(StateLoading)

		index, loadErr := s.loadPersistedIndex(ctx)
		if loadErr == nil {
			s.setState(StateValidCache)
			s.mu.Lock()
			s.index = index
			s.mu.Unlock()
			s.setState(StateReady)
			s.logger.Info("Loaded per-clause index from cache",
				slog.String("index_path", s.indexPath),
				slog.Int("entries", index.Len()),
			)
			return nil
		}

		// Any validation failure means the cache uses an older, incompatible
		// record shape: discard it unconditionally and rebuild.
		s.setState(StateStaleCache)
		s.logger.Warn("Persisted index is stale, rebuilding",
			slog.String("index_path", s.indexPath),
			slog.String("reason", loadErr.Error()),
		)
		if err := os.Remove(s.indexPath); err != nil && !os.IsNotExist(err) {
			s.setState(StateFailed)
			return fmt.Errorf("failed to remove stale index %s: %w", s.indexPath, err)
		}
	}

	s.setState(StateBuilding)

	if len(clauses) == 0 {
		s.setState(StateFailed)
		return fmt.Errorf("no policy clauses found in %s", s.policiesDir)
	}

	index, err := s.buildIndex(ctx, clauses)
	if err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("failed to build clause index: %w", err)
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
	s.setState(StateReady)

	s.logger.Info("Built per-clause index",
		slog.String("index_path", s.indexPath),
		slog.Int("clauses", index.Len()),
	)

	return nil
}

// loadPersistedIndex opens the persisted index and validates that it carries
// the per-clause record shape: the first sampled entry must have a non-empty
// clause_id in its metadata. A legacy chunked index fails this check.
func (s *Store) loadPersistedIndex(ctx context.Context) (*Index, error) {
	db, err := sql.Open("sqlite", s.indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer db.Close()

	var sampleID string
	row := db.QueryRowContext(ctx, `SELECT clause_id FROM clause_entries ORDER BY id LIMIT 1`)
	if err := row.Scan(&sampleID); err != nil {
		return nil, fmt.Errorf("index metadata check failed: %w", err)
	}

	if sampleID == "" {
		return nil, fmt.Errorf("index entry is missing clause_id metadata (legacy chunked format)")
	}

	rows, err := db.QueryContext(ctx, `
		SELECT clause_id, rule_name, description, source, embedding
		FROM clause_entries
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read index entries: %w", err)
	}
	defer rows.Close()

	var entries []IndexEntry
	for rows.Next() {
		var c Clause
		var blob []byte
		if err := rows.Scan(&c.ClauseID, &c.RuleName, &c.Description, &c.Source, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan index entry: %w", err)
		}

		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", c.ClauseID, err)
		}

		entries = append(entries, IndexEntry{Clause: c, Vector: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate index entries: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("persisted index contains no entries")
	}

	return NewIndex(entries), nil
}

// buildIndex embeds every clause as one unit and persists the result
func (s *Store) buildIndex(ctx context.Context, clauses []Clause) (*Index, error) {
	entries := make([]IndexEntry, 0, len(clauses))
	for _, c := range clauses {
		vec, err := s.embedder.Embed(ctx, c.EmbeddingText())
		if err != nil {
			return nil, fmt.Errorf("failed to embed clause %s: %w", c.ClauseID, err)
		}
		entries = append(entries, IndexEntry{Clause: c, Vector: vec})
	}

	if err := s.persistIndex(ctx, entries); err != nil {
		return nil, err
	}

	return NewIndex(entries), nil
}

// persistIndex writes the embedded entries to the persisted index location
func (s *Store) persistIndex(ctx context.Context, entries []IndexEntry) error {
	db, err := sql.Open("sqlite", s.indexPath)
	if err != nil {
		return fmt.Errorf("failed to create index at %s: %w", s.indexPath, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS clause_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			clause_id TEXT NOT NULL,
			rule_name TEXT NOT NULL,
			description TEXT NOT NULL,
			source TEXT NOT NULL,
			embedding BLOB NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create index schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO clause_entries (clause_id, rule_name, description, source, embedding)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare index insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		blob, err := encodeVector(entry.Vector)
		if err != nil {
			return fmt.Errorf("entry %s: %w", entry.Clause.ClauseID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			entry.Clause.ClauseID,
			entry.Clause.RuleName,
			entry.Clause.Description,
			entry.Clause.Source,
			blob,
		); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", entry.Clause.ClauseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}

	return nil
}

// setState records a state transition
func (s *Store) setState(state State) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.mu.Unlock()

	s.logger.Debug("Clause store state transition",
		slog.String("from", prev.String()),
		slog.String("to", state.String()),
	)
}

// State returns the current lifecycle state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Ready reports whether the store completed initialization successfully
func (s *Store) Ready() bool {
	return s.State() == StateReady
}

// AllClauses returns the full parsed corpus, verbatim and source-tagged.
// This is the authoritative clause set the reasoning step checks exhaustively.
func (s *Store) AllClauses() []Clause {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clauses := make([]Clause, len(s.clauses))
	copy(clauses, s.clauses)
	return clauses
}

// Index returns the clause vector index, or nil before initialization
func (s *Store) Index() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}
