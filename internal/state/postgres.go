package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore keeps the dedupe map as a single JSONB document, for
// deployments where the working directory is not durable between runs
// (ephemeral CI runners).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bot_state (
		id SMALLINT PRIMARY KEY,
		doc JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`
	_, err := s.db.Exec(schema)
	return err
}

func (s *PostgresStore) Load() (Flags, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT doc FROM bot_state WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return Flags{}, nil
	}
	if err != nil {
		return Flags{}, fmt.Errorf("failed to load state row: %w", err)
	}

	var flags Flags
	if err := json.Unmarshal(raw, &flags); err != nil {
		return Flags{}, fmt.Errorf("failed to parse state document: %w", err)
	}
	if flags == nil {
		flags = Flags{}
	}
	return flags, nil
}

func (s *PostgresStore) Save(flags Flags) error {
	data, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO bot_state (id, doc, updated_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		data)
	if err != nil {
		return fmt.Errorf("failed to save state row: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
