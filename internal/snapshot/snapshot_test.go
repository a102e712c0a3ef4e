package snapshot

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/viuworks/taller/internal/pipeline"
	"github.com/viuworks/taller/internal/pricing"
	"github.com/viuworks/taller/internal/store"
)

func newSnapshotTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE snapshots (
			name TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		t.Fatalf("failed creating snapshots table: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := newSnapshotTestDB(t)

	st := State{
		Orders: []store.Order{
			{
				ID:           "o1",
				CustomerID:   "c1",
				CampaignName: "Campaña Escolar 2024",
				Status:       pipeline.StagePorAprobar,
				Items: []store.OrderItem{
					{MaterialID: "m1", Width: 120, Height: 240, Quantity: 50, Finishing: []string{"Corte Recto"}},
				},
				TotalAmount:  2500000,
				DeliveryDate: "2024-03-01",
				CreatedAt:    "2024-02-10",
				FileStatus:   store.FileAmarillo,
			},
			{
				ID:         "o2",
				CustomerID: "c2",
				Status:     pipeline.StageEnProduccion,
				Items:      []store.OrderItem{},
				FileStatus: store.FileVerde,
			},
		},
		PricingConfig: pricing.DefaultConfig(),
	}

	if err := Save(db, StoreName, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(db, StoreName)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !reflect.DeepEqual(loaded, st) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, st)
	}
}

func TestSaveOverwritesExisting(t *testing.T) {
	db := newSnapshotTestDB(t)

	if err := Save(db, StoreName, State{PricingConfig: pricing.Config{Margin: 1.2}}); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := Save(db, StoreName, State{PricingConfig: pricing.Config{Margin: 1.5}}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := Load(db, StoreName)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.PricingConfig.Margin != 1.5 {
		t.Fatalf("margin = %v, want the overwritten value 1.5", loaded.PricingConfig.Margin)
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	db := newSnapshotTestDB(t)
	_, err := Load(db, StoreName)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadCorruptSnapshot(t *testing.T) {
	db := newSnapshotTestDB(t)
	if _, err := db.Exec(`INSERT INTO snapshots (name, data) VALUES (?, ?)`, StoreName, "{not json"); err != nil {
		t.Fatalf("seed corrupt snapshot: %v", err)
	}

	_, err := Load(db, StoreName)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
