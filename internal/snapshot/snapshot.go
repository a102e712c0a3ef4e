// Package snapshot persists the order board and pricing config as a flat
// JSON document keyed by a store name, so the server can restart without
// losing state and tools can read the board offline.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/viuworks/taller/internal/pricing"
	"github.com/viuworks/taller/internal/store"
)

// StoreName is the fixed key of the application's snapshot, kept compatible
// with the board's previous local storage key.
const StoreName = "viu-manager-storage"

var (
	// ErrNotFound means no snapshot exists yet; callers fall back to seed data.
	ErrNotFound = errors.New("snapshot no encontrado")
	// ErrCorrupt means the stored document could not be decoded; callers
	// reseed instead of aborting.
	ErrCorrupt = errors.New("snapshot corrupto")
)

// State is everything the snapshot carries.
type State struct {
	Orders        []store.Order  `json:"orders"`
	PricingConfig pricing.Config `json:"pricingConfig"`
}

// Save upserts the snapshot document.
func Save(db *sql.DB, name string, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("serializar snapshot: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO snapshots (name, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, name, string(data))
	if err != nil {
		return fmt.Errorf("guardar snapshot %s: %w", name, err)
	}
	return nil
}

// Load reads and decodes the snapshot named name.
func Load(db *sql.DB, name string) (State, error) {
	var data string
	err := db.QueryRow(`SELECT data FROM snapshots WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("leer snapshot %s: %w", name, err)
	}

	var st State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return st, nil
}
