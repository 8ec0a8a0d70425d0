// Package archive moves channels between the active and archived
// partitions. Moves are all-or-nothing: a set with one missing member
// leaves everything in place.
package archive

import (
	"fmt"

	"github.com/lysyi3m/channel-comb/app/database"
)

// Store is the slice of the storage facade the manager moves channels
// through.
type Store interface {
	Move(ids []string, from, to database.Partition) error
	LastExportSet() ([]string, error)
}

type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// ArchiveChannels moves the given view of active channels to the archived
// partition and reports how many were moved.
func (m *Manager) ArchiveChannels(channels []database.Channel) (int, error) {
	ids := make([]string, 0, len(channels))
	for _, ch := range channels {
		ids = append(ids, ch.ID)
	}
	return m.archive(ids)
}

// ArchiveLastExported archives exactly the set of channels recorded by the
// most recent export. A missing export set is not an error; nothing moves.
func (m *Manager) ArchiveLastExported() (int, error) {
	ids, err := m.store.LastExportSet()
	if err != nil {
		return 0, fmt.Errorf("failed to load last export set: %w", err)
	}
	return m.archive(ids)
}

func (m *Manager) archive(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := m.store.Move(ids, database.PartitionActive, database.PartitionArchived); err != nil {
		return 0, err
	}
	return len(ids), nil
}
