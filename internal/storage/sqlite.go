package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the knowledge base and the incident
// record store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "deskmate.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// A single connection serializes incident inserts across sessions and
	// avoids "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't
// been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

// matchClause builds an OR-joined set of case-insensitive LIKE predicates
// over short_description, one per token. An empty token set yields no
// predicate: every record is a candidate.
func matchClause(tokens []string) (string, []any) {
	if len(tokens) == 0 {
		return "", nil
	}
	clauses := make([]string, len(tokens))
	args := make([]any, len(tokens))
	for i, tok := range tokens {
		clauses[i] = "LOWER(short_description) LIKE ?"
		args[i] = "%" + strings.ToLower(tok) + "%"
	}
	return "WHERE (" + strings.Join(clauses, " OR ") + ")", args
}

// SearchKnowledgeBase returns up to limit articles whose short_description
// contains any of the tokens, most recently updated first. Ties on
// updated_at break by number descending so the ordering is deterministic.
func (s *Store) SearchKnowledgeBase(tokens []string, limit int) ([]KnowledgeArticle, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	where, args := matchClause(tokens)
	query := `
		SELECT number, version, short_description, author, category, workflow, updated_at
		FROM knowledge_base ` + where + `
		ORDER BY updated_at DESC, number DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching knowledge base: %w", err)
	}
	defer rows.Close()

	var results []KnowledgeArticle
	for rows.Next() {
		var a KnowledgeArticle
		var updatedAt string
		if err := rows.Scan(&a.Number, &a.Version, &a.ShortDescription, &a.Author, &a.Category, &a.Workflow, &updatedAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at for %s: %w", a.Number, err)
		}
		a.UpdatedAt = t
		results = append(results, a)
	}
	return results, rows.Err()
}

// SearchIncidents returns up to limit incidents whose short_description
// contains any of the tokens, most recently opened first. Ties on opened_at
// break by number descending.
func (s *Store) SearchIncidents(tokens []string, limit int) ([]Incident, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	where, args := matchClause(tokens)
	query := `
		SELECT number, opened_at, short_description, description, state,
		       COALESCE(assigned_to, ''), COALESCE(resolution_code, ''), COALESCE(resolution_notes, '')
		FROM incidents ` + where + `
		ORDER BY opened_at DESC, number DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching incidents: %w", err)
	}
	defer rows.Close()

	var results []Incident
	for rows.Next() {
		var inc Incident
		var openedAt string
		if err := rows.Scan(&inc.Number, &openedAt, &inc.ShortDescription, &inc.Description, &inc.State, &inc.AssignedTo, &inc.ResolutionCode, &inc.ResolutionNotes); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, openedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing opened_at for %s: %w", inc.Number, err)
		}
		inc.OpenedAt = t
		results = append(results, inc)
	}
	return results, rows.Err()
}

// InsertIncident stores a new incident. The insert is a single statement:
// either the row exists afterwards or the error reports why it doesn't.
// A number collision returns ErrDuplicate.
func (s *Store) InsertIncident(inc Incident) error {
	state := inc.State
	if state == "" {
		state = StateNew
	}
	_, err := s.db.Exec(`
		INSERT INTO incidents (number, opened_at, short_description, description, state, assigned_to, resolution_code, resolution_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.Number, inc.OpenedAt.UTC().Format(time.RFC3339), inc.ShortDescription, inc.Description,
		state, nullable(inc.AssignedTo), nullable(inc.ResolutionCode), nullable(inc.ResolutionNotes),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("incident %s: %w", inc.Number, ErrDuplicate)
		}
		return fmt.Errorf("inserting incident %s: %w", inc.Number, err)
	}
	return nil
}

// InsertKnowledgeArticle stores a new article (used by kb import).
// A number collision returns ErrDuplicate.
func (s *Store) InsertKnowledgeArticle(a KnowledgeArticle) error {
	updatedAt := a.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO knowledge_base (number, version, short_description, author, category, workflow, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Number, a.Version, a.ShortDescription, a.Author, a.Category, a.Workflow,
		updatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("article %s: %w", a.Number, ErrDuplicate)
		}
		return fmt.Errorf("inserting article %s: %w", a.Number, err)
	}
	return nil
}

// GetIncident fetches a single incident by number.
func (s *Store) GetIncident(number string) (Incident, error) {
	var inc Incident
	var openedAt string
	err := s.db.QueryRow(`
		SELECT number, opened_at, short_description, description, state,
		       COALESCE(assigned_to, ''), COALESCE(resolution_code, ''), COALESCE(resolution_notes, '')
		FROM incidents WHERE number = ?`, number,
	).Scan(&inc.Number, &openedAt, &inc.ShortDescription, &inc.Description, &inc.State, &inc.AssignedTo, &inc.ResolutionCode, &inc.ResolutionNotes)
	if err == sql.ErrNoRows {
		return Incident{}, ErrNotFound
	}
	if err != nil {
		return Incident{}, err
	}
	t, err := time.Parse(time.RFC3339, openedAt)
	if err != nil {
		return Incident{}, fmt.Errorf("parsing opened_at: %w", err)
	}
	inc.OpenedAt = t
	return inc, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
