// Package catalog is the read-only registry of materials and customers.
// Stock movements and customer management live outside this system; the
// registry is loaded once at startup from the reference tables.
package catalog

import (
	"database/sql"
	"fmt"
)

// MaterialType classifies how a material is handled on the shop floor.
type MaterialType string

const (
	MaterialRigido   MaterialType = "Rígido"
	MaterialFlexible MaterialType = "Flexible"
)

// CustomerType is the commercial segment that drives the margin tier.
type CustomerType string

const (
	CustomerComplejo   CustomerType = "Complejo"
	CustomerRecurrente CustomerType = "Recurrente"
	CustomerEsporadico CustomerType = "Esporádico"
)

type Material struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         MaterialType `json:"type"`
	Stock        int          `json:"stock"`
	Unit         string       `json:"unit"`
	PricePerUnit int64        `json:"pricePerUnit"`
}

type Customer struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Type    CustomerType `json:"type"`
	Contact string       `json:"contact"`
	Debt    int64        `json:"debt"`
}

// Registry holds the loaded reference data, indexed by id.
type Registry struct {
	materials    map[string]Material
	customers    map[string]Customer
	materialList []Material
	customerList []Customer
}

// Load reads the materials and customers tables into a Registry.
func Load(db *sql.DB) (*Registry, error) {
	reg := &Registry{
		materials: make(map[string]Material),
		customers: make(map[string]Customer),
	}

	rows, err := db.Query(`
		SELECT id, name, type, stock, unit, price_per_unit
		FROM materials
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Type, &m.Stock, &m.Unit, &m.PricePerUnit); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		reg.materials[m.ID] = m
		reg.materialList = append(reg.materialList, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}

	custRows, err := db.Query(`
		SELECT id, name, type, contact, debt
		FROM customers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer custRows.Close()

	for custRows.Next() {
		var c Customer
		if err := custRows.Scan(&c.ID, &c.Name, &c.Type, &c.Contact, &c.Debt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		reg.customers[c.ID] = c
		reg.customerList = append(reg.customerList, c)
	}
	if err := custRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}

	return reg, nil
}

// Material looks up a material by id.
func (r *Registry) Material(id string) (Material, bool) {
	m, ok := r.materials[id]
	return m, ok
}

// Customer looks up a customer by id.
func (r *Registry) Customer(id string) (Customer, bool) {
	c, ok := r.customers[id]
	return c, ok
}

// Materials returns all materials in id order.
func (r *Registry) Materials() []Material {
	out := make([]Material, len(r.materialList))
	copy(out, r.materialList)
	return out
}

// Customers returns all customers in id order.
func (r *Registry) Customers() []Customer {
	out := make([]Customer, len(r.customerList))
	copy(out, r.customerList)
	return out
}
