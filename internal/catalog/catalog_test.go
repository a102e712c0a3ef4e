package catalog

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func newCatalogTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE materials (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			stock INTEGER NOT NULL DEFAULT 0,
			unit TEXT NOT NULL,
			price_per_unit INTEGER NOT NULL
		);
		CREATE TABLE customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			contact TEXT NOT NULL DEFAULT '',
			debt INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		t.Fatalf("failed creating reference tables: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestLoadRegistry(t *testing.T) {
	db := newCatalogTestDB(t)

	_, err := db.Exec(`
		INSERT INTO materials (id, name, type, stock, unit, price_per_unit) VALUES
			('m1', 'Foam 5MM (Fomex)', 'Rígido', 120, 'planchas', 15000),
			('m6', 'Vinilo Blanco Plotter', 'Flexible', 300, 'm', 3800);
		INSERT INTO customers (id, name, type, contact, debt) VALUES
			('c1', 'Fashion Park', 'Complejo', 'Paulina', 4500000),
			('c2', 'La Guinda', 'Recurrente', 'Maria Paz', 0);
	`)
	if err != nil {
		t.Fatalf("seed reference data: %v", err)
	}

	reg, err := Load(db)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	m, ok := reg.Material("m1")
	if !ok {
		t.Fatal("material m1 not found")
	}
	if m.Type != MaterialRigido || m.PricePerUnit != 15000 {
		t.Fatalf("unexpected material: %+v", m)
	}

	c, ok := reg.Customer("c1")
	if !ok {
		t.Fatal("customer c1 not found")
	}
	if c.Type != CustomerComplejo || c.Debt != 4500000 {
		t.Fatalf("unexpected customer: %+v", c)
	}

	if _, ok := reg.Material("m99"); ok {
		t.Fatal("unknown material found")
	}
	if _, ok := reg.Customer("c99"); ok {
		t.Fatal("unknown customer found")
	}

	if got := len(reg.Materials()); got != 2 {
		t.Fatalf("Materials() length = %d, want 2", got)
	}
	if got := len(reg.Customers()); got != 2 {
		t.Fatalf("Customers() length = %d, want 2", got)
	}
}

func TestRegistryListsAreCopies(t *testing.T) {
	db := newCatalogTestDB(t)
	if _, err := db.Exec(`INSERT INTO materials (id, name, type, stock, unit, price_per_unit) VALUES ('m1', 'Foam', 'Rígido', 1, 'planchas', 100)`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg, err := Load(db)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	list := reg.Materials()
	list[0].PricePerUnit = 1

	m, _ := reg.Material("m1")
	if m.PricePerUnit != 100 {
		t.Fatal("registry mutated through a list copy")
	}
}
