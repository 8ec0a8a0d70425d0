package database

import (
	"fmt"
	"time"
)

// ExportRepository remembers the most recent export result so the archive
// step can act on exactly the set of identifiers that left the building.
type ExportRepository struct {
	db *DB
}

func NewExportRepository(db *DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// SaveSet replaces the stored last-export set.
func (r *ExportRepository) SaveSet(ids []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM export_set`); err != nil {
		return fmt.Errorf("failed to clear export set: %w", err)
	}

	now := time.Now().UnixNano()
	for i, id := range ids {
		if _, err := tx.Exec(`
			INSERT INTO export_set (channel_id, position, exported_at) VALUES (?, ?, ?)
		`, id, i, now); err != nil {
			return fmt.Errorf("failed to insert export set entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export set: %w", err)
	}
	return nil
}

// LastSet returns the identifiers of the most recent export, in export
// order. Empty when nothing has been exported yet.
func (r *ExportRepository) LastSet() ([]string, error) {
	rows, err := r.db.Query(`SELECT channel_id FROM export_set ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read export set: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan export set entry: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
