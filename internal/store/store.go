// Package store is the authoritative in-memory collection of orders.
// Every view reads from it and every mutation goes through it; callers are
// responsible for consulting the transition guard before SetStatus.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viuworks/taller/internal/pipeline"
)

// FileStatus tracks print-file readiness, independent of the pipeline stage.
type FileStatus string

const (
	FileRojo     FileStatus = "Rojo"
	FileAmarillo FileStatus = "Amarillo"
	FileVerde    FileStatus = "Verde"
)

// Valid reports whether f is a known file status.
func (f FileStatus) Valid() bool {
	switch f {
	case FileRojo, FileAmarillo, FileVerde:
		return true
	}
	return false
}

type OrderItem struct {
	MaterialID string   `json:"materialId"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Quantity   int      `json:"quantity"`
	Finishing  []string `json:"finishing"`
}

type Order struct {
	ID           string         `json:"id"`
	CustomerID   string         `json:"customerId"`
	CampaignName string         `json:"campaignName"`
	Description  string         `json:"description"`
	Status       pipeline.Stage `json:"status"`
	Items        []OrderItem    `json:"items"`
	TotalAmount  int64          `json:"totalAmount"`
	DeliveryDate string         `json:"deliveryDate"`
	CreatedAt    string         `json:"createdAt"`
	FileStatus   FileStatus     `json:"fileStatus"`
}

var (
	// ErrOrderNotFound is returned for mutations on an unknown id. A
	// correctly wired caller never hits it.
	ErrOrderNotFound = errors.New("orden no encontrada")
	// ErrInvalidTransition is returned when the approve action does not
	// satisfy the transition guard.
	ErrInvalidTransition = errors.New("transición de estado no permitida")
)

// Store keeps orders in board order. A single mutex serializes mutations;
// each user action is processed to completion before the next.
type Store struct {
	mu     sync.RWMutex
	orders map[string]*Order
	// seq is the board order of ids. Columns are derived by filtering it per
	// stage, so reordering within a column is a permutation of its slots.
	seq []string
}

// New builds a store from the given orders, normalizing unknown stages to
// the first column.
func New(orders []Order) *Store {
	s := &Store{orders: make(map[string]*Order, len(orders))}
	for _, o := range orders {
		o := cloneOrder(o)
		o.Status = pipeline.Normalize(o.Status)
		if !o.FileStatus.Valid() {
			o.FileStatus = FileRojo
		}
		if _, dup := s.orders[o.ID]; dup || o.ID == "" {
			continue
		}
		s.orders[o.ID] = &o
		s.seq = append(s.seq, o.ID)
	}
	return s
}

// Create adds a new order. A missing id is generated, a missing status
// defaults to the first stage, and a missing creation date to today.
func (s *Store) Create(o Order) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o = cloneOrder(o)
	if o.ID == "" {
		o.ID = "o-" + uuid.NewString()
	}
	if _, exists := s.orders[o.ID]; exists {
		return Order{}, fmt.Errorf("orden %s ya existe", o.ID)
	}
	if o.Status == "" {
		o.Status = pipeline.StageSolicitud
	}
	if !o.Status.Valid() {
		return Order{}, fmt.Errorf("estado desconocido: %q", o.Status)
	}
	if !o.FileStatus.Valid() {
		o.FileStatus = FileRojo
	}
	if o.CreatedAt == "" {
		o.CreatedAt = time.Now().Format("2006-01-02")
	}

	s.orders[o.ID] = &o
	s.seq = append(s.seq, o.ID)
	return cloneOrder(o), nil
}

// Get returns a copy of one order.
func (s *Store) Get(id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return cloneOrder(*o), nil
}

// SetStatus moves an order to a stage. The caller must have consulted the
// transition guard first; the store only validates the stage itself.
func (s *Store) SetStatus(id string, stage pipeline.Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("estado desconocido: %q", stage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = stage
	return nil
}

// SetFileStatus updates print-file readiness. Idempotent by construction.
func (s *Store) SetFileStatus(id string, fs FileStatus) error {
	if !fs.Valid() {
		return fmt.Errorf("estado de archivo desconocido: %q", fs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.FileStatus = fs
	return nil
}

// Approve performs the client's only transition: Por Aprobar -> En Producción
// on an order owned by the acting customer.
func (s *Store) Approve(id, actingCustomerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if !pipeline.CanTransition(pipeline.RoleClient, o.Status, pipeline.StageEnProduccion, o.CustomerID, actingCustomerID) {
		return ErrInvalidTransition
	}
	o.Status = pipeline.StageEnProduccion
	return nil
}

// Reorder moves a card within its column. fromIndex and toIndex address the
// column's own sequence; the order's stage never changes.
func (s *Store) Reorder(stage pipeline.Stage, fromIndex, toIndex int) error {
	if !stage.Valid() {
		return fmt.Errorf("estado desconocido: %q", stage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Board positions occupied by this column.
	var slots []int
	for i, id := range s.seq {
		if s.orders[id].Status == stage {
			slots = append(slots, i)
		}
	}
	if fromIndex < 0 || fromIndex >= len(slots) || toIndex < 0 || toIndex >= len(slots) {
		return fmt.Errorf("índice de reordenamiento fuera de rango: %d -> %d (columna de %d)", fromIndex, toIndex, len(slots))
	}
	if fromIndex == toIndex {
		return nil
	}

	ids := make([]string, len(slots))
	for i, pos := range slots {
		ids[i] = s.seq[pos]
	}
	moved := ids[fromIndex]
	ids = append(ids[:fromIndex], ids[fromIndex+1:]...)
	ids = append(ids[:toIndex], append([]string{moved}, ids[toIndex:]...)...)

	for i, pos := range slots {
		s.seq[pos] = ids[i]
	}
	return nil
}

// Query returns orders visible to the session, in board order. Clients see
// only orders of their linked customer; staff roles see everything.
func (s *Store) Query(role pipeline.Role, customerID string) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Order, 0, len(s.seq))
	for _, id := range s.seq {
		o := s.orders[id]
		if role == pipeline.RoleClient && o.CustomerID != customerID {
			continue
		}
		out = append(out, cloneOrder(*o))
	}
	return out
}

// All returns every order in board order.
func (s *Store) All() []Order {
	return s.Query(pipeline.RoleAdmin, "")
}

// Replace swaps the full order set, used when restoring a snapshot.
func (s *Store) Replace(orders []Order) {
	fresh := New(orders)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = fresh.orders
	s.seq = fresh.seq
}

func cloneOrder(o Order) Order {
	items := make([]OrderItem, len(o.Items))
	for i, it := range o.Items {
		it.Finishing = append([]string(nil), it.Finishing...)
		items[i] = it
	}
	o.Items = items
	return o
}
