package database

import (
	"fmt"
)

// CredentialRepository persists the API credential list and its sticky
// quota state between runs.
type CredentialRepository struct {
	db *DB
}

func NewCredentialRepository(db *DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Replace swaps the stored credential set for a fresh one, all available.
// Called when the operator supplies a new key set at scan start.
func (r *CredentialRepository) Replace(keys []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	for _, key := range keys {
		if _, err := tx.Exec(`INSERT INTO credentials (key, status) VALUES (?, 'available')`, key); err != nil {
			return fmt.Errorf("failed to insert credential: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credentials: %w", err)
	}
	return nil
}

// SetStatus updates the persisted state of one credential.
func (r *CredentialRepository) SetStatus(key, status string) error {
	if _, err := r.db.Exec(`UPDATE credentials SET status = ? WHERE key = ?`, status, key); err != nil {
		return fmt.Errorf("failed to update credential status: %w", err)
	}
	return nil
}

// List returns all stored credentials in insertion order.
func (r *CredentialRepository) List() ([]Credential, error) {
	rows, err := r.db.Query(`SELECT key, status FROM credentials ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var creds []Credential
	for rows.Next() {
		var c Credential
		if err := rows.Scan(&c.Key, &c.Status); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, c)
	}
	return creds, rows.Err()
}
