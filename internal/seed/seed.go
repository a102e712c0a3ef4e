// Package seed loads the reference data every fresh installation starts
// from: the customer book, the material catalog, and a small demo board.
package seed

import (
	"database/sql"
	"fmt"

	"github.com/viuworks/taller/internal/catalog"
	"github.com/viuworks/taller/internal/pipeline"
	"github.com/viuworks/taller/internal/store"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

var seedCustomers = []catalog.Customer{
	{ID: "c1", Name: "Fashion Park", Type: catalog.CustomerComplejo, Contact: "Paulina", Debt: 4500000},
	{ID: "c2", Name: "La Guinda", Type: catalog.CustomerRecurrente, Contact: "Maria Paz", Debt: 0},
	{ID: "c3", Name: "Puzle Partner", Type: catalog.CustomerEsporadico, Contact: "Juan", Debt: 120000},
}

var seedMaterials = []catalog.Material{
	{ID: "m1", Name: "Foam 5MM (Fomex)", Type: catalog.MaterialRigido, Stock: 120, Unit: "planchas", PricePerUnit: 15000},
	{ID: "m2", Name: "Sintra 3MM (PVC)", Type: catalog.MaterialRigido, Stock: 85, Unit: "planchas", PricePerUnit: 12000},
	{ID: "m3", Name: "Sintra 5MM (PVC)", Type: catalog.MaterialRigido, Stock: 40, Unit: "planchas", PricePerUnit: 18000},
	{ID: "m4", Name: "PP Alveolar 6MM", Type: catalog.MaterialRigido, Stock: 200, Unit: "planchas", PricePerUnit: 8000},
	{ID: "m5", Name: "Adhesivo Laminado", Type: catalog.MaterialFlexible, Stock: 500, Unit: "m", PricePerUnit: 4500},
	{ID: "m6", Name: "Vinilo Blanco Plotter", Type: catalog.MaterialFlexible, Stock: 300, Unit: "m", PricePerUnit: 3800},
	{ID: "m7", Name: "Tela PVC", Type: catalog.MaterialFlexible, Stock: 150, Unit: "m", PricePerUnit: 6000},
}

// Orders returns the demo board used when no snapshot exists.
func Orders() []store.Order {
	return []store.Order{
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
			ID:           "o2",
			CustomerID:   "c2",
			CampaignName: "Lanzamiento Verano",
			Status:       pipeline.StageEnProduccion,
			Items: []store.OrderItem{
				{MaterialID: "m5", Width: 50, Height: 50, Quantity: 200, Finishing: []string{"Troquelado"}},
			},
			TotalAmount:  850000,
			DeliveryDate: "2024-02-20",
			CreatedAt:    "2024-02-05",
			FileStatus:   store.FileVerde,
		},
		{
			ID:           "o3",
			CustomerID:   "c3",
			CampaignName: "Cartelería Evento",
			Status:       pipeline.StageTerminado,
			Items: []store.OrderItem{
				{MaterialID: "m2", Width: 60, Height: 90, Quantity: 10, Finishing: []string{}},
			},
			TotalAmount:  120000,
			DeliveryDate: "2024-01-15",
			CreatedAt:    "2024-01-10",
			FileStatus:   store.FileVerde,
		},
		{
			ID:           "o4",
			CustomerID:   "c1",
			CampaignName: "Remodelación Tienda Centro",
			Status:       pipeline.StageSolicitud,
			Items:        []store.OrderItem{},
			TotalAmount:  0,
			CreatedAt:    "2024-02-12",
			FileStatus:   store.FileRojo,
		},
	}
}

// Run inserts missing reference rows in an idempotent way.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureCustomers(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureMaterials(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureCustomers(tx *sql.Tx, stats *Stats) error {
	for _, c := range seedCustomers {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM customers WHERE id = ? LIMIT 1)`, c.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check customer %s existence: %w", c.ID, err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO customers (id, name, type, contact, debt)
			VALUES (?, ?, ?, ?, ?)
		`, c.ID, c.Name, string(c.Type), c.Contact, c.Debt); err != nil {
			return fmt.Errorf("insert customer %s: %w", c.ID, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureMaterials(tx *sql.Tx, stats *Stats) error {
	for _, m := range seedMaterials {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM materials WHERE id = ? LIMIT 1)`, m.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check material %s existence: %w", m.ID, err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO materials (id, name, type, stock, unit, price_per_unit)
			VALUES (?, ?, ?, ?, ?, ?)
		`, m.ID, m.Name, string(m.Type), m.Stock, m.Unit, m.PricePerUnit); err != nil {
			return fmt.Errorf("insert material %s: %w", m.ID, err)
		}
		stats.Inserts++
	}
	return nil
}
