package params

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider stores named parameter sets in a SQLite database
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite parameter provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	p := &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}
	if err := p.createSchema(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteProvider) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS parameter_sets (
			name   TEXT PRIMARY KEY,
			lambda REAL NOT NULL,
			beta   REAL NOT NULL,
			gamma  REAL NOT NULL,
			eta    REAL NOT NULL,
			mu     REAL NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create parameter_sets table: %w", err)
	}
	return nil
}

// Load retrieves the parameter set stored under name
func (s *SQLiteProvider) Load(name string) (Parameters, error) {
	query := `
		SELECT lambda, beta, gamma, eta, mu
		FROM parameter_sets
		WHERE name = ?
	`

	var p Parameters
	err := s.db.QueryRow(query, name).Scan(&p.Lambda, &p.Beta, &p.Gamma, &p.Eta, &p.Mu)
	if errors.Is(err, sql.ErrNoRows) {
		return Parameters{}, fmt.Errorf("no parameter set named %q in %s", name, s.dbPath)
	}
	if err != nil {
		return Parameters{}, fmt.Errorf("failed to query parameter set: %w", err)
	}
	return p, nil
}

// Save stores the parameter set under name
func (s *SQLiteProvider) Save(name string, p Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO parameter_sets (name, lambda, beta, gamma, eta, mu, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			lambda = excluded.lambda,
			beta = excluded.beta,
			gamma = excluded.gamma,
			eta = excluded.eta,
			mu = excluded.mu,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, name, p.Lambda, p.Beta, p.Gamma, p.Eta, p.Mu); err != nil {
		return fmt.Errorf("failed to save parameter set %q: %w", name, err)
	}
	return nil
}

// List returns the names of all stored parameter sets
func (s *SQLiteProvider) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM parameter_sets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameter sets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return names, nil
}

// Close closes the underlying database handle
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
