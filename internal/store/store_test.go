package store

import (
	"errors"
	"testing"

	"github.com/viuworks/taller/internal/pipeline"
)

func seedOrders() []Order {
	return []Order{
		{
			ID:           "o1",
			CustomerID:   "c1",
			CampaignName: "Campaña Escolar 2024",
			Status:       pipeline.StagePorAprobar,
			Items:        []OrderItem{{MaterialID: "m1", Width: 120, Height: 240, Quantity: 50, Finishing: []string{"Corte Recto"}}},
			TotalAmount:  2500000,
			DeliveryDate: "2024-03-01",
			CreatedAt:    "2024-02-10",
			FileStatus:   FileAmarillo,
		},
		{
			ID:           "o2",
			CustomerID:   "c2",
			CampaignName: "Lanzamiento Verano",
			Status:       pipeline.StageEnProduccion,
			Items:        []OrderItem{{MaterialID: "m5", Width: 50, Height: 50, Quantity: 200, Finishing: []string{"Troquelado"}}},
			TotalAmount:  850000,
			DeliveryDate: "2024-02-20",
			CreatedAt:    "2024-02-05",
			FileStatus:   FileVerde,
		},
		{
			ID:           "o3",
			CustomerID:   "c1",
			CampaignName: "Remodelación Tienda Centro",
			Status:       pipeline.StageSolicitud,
			TotalAmount:  0,
			CreatedAt:    "2024-02-12",
			FileStatus:   FileRojo,
		},
	}
}

func TestNewNormalizesUnknownStages(t *testing.T) {
	s := New([]Order{{ID: "x", Status: pipeline.Stage("Cobranza"), FileStatus: FileVerde}})
	o, err := s.Get("x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if o.Status != pipeline.StageSolicitud {
		t.Fatalf("legacy stage normalized to %q, want Solicitud", o.Status)
	}
}

func TestCreateAssignsIDAndDefaults(t *testing.T) {
	s := New(nil)
	created, err := s.Create(Order{CustomerID: "c1", CampaignName: "Nueva"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("no id assigned")
	}
	if created.Status != pipeline.StageSolicitud {
		t.Fatalf("default status = %q, want Solicitud", created.Status)
	}
	if created.FileStatus != FileRojo {
		t.Fatalf("default file status = %q, want Rojo", created.FileStatus)
	}
	if created.CreatedAt == "" {
		t.Fatal("no creation date assigned")
	}
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	s := New(seedOrders())
	if _, err := s.Create(Order{ID: "o1", CustomerID: "c1"}); err == nil {
		t.Fatal("duplicate id accepted")
	}
}

func TestSetStatusUnknownOrder(t *testing.T) {
	s := New(seedOrders())
	if err := s.SetStatus("missing", pipeline.StageDespacho); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if err := s.SetFileStatus("missing", FileVerde); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestSetFileStatusIdempotent(t *testing.T) {
	s := New(seedOrders())
	before, _ := s.Get("o1")

	for i := 0; i < 2; i++ {
		if err := s.SetFileStatus("o1", FileVerde); err != nil {
			t.Fatalf("SetFileStatus: %v", err)
		}
	}

	after, _ := s.Get("o1")
	if after.FileStatus != FileVerde {
		t.Fatalf("fileStatus = %q, want Verde", after.FileStatus)
	}
	if after.TotalAmount != before.TotalAmount {
		t.Fatalf("totalAmount changed: %d -> %d", before.TotalAmount, after.TotalAmount)
	}
	if after.Status != before.Status {
		t.Fatalf("status changed: %q -> %q", before.Status, after.Status)
	}
}

func TestApproveOwnOrder(t *testing.T) {
	s := New(seedOrders())
	if err := s.Approve("o1", "c1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	o, _ := s.Get("o1")
	if o.Status != pipeline.StageEnProduccion {
		t.Fatalf("status after approve = %q", o.Status)
	}
}

func TestApproveForeignOrderDenied(t *testing.T) {
	s := New(seedOrders())
	err := s.Approve("o1", "c2")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	o, _ := s.Get("o1")
	if o.Status != pipeline.StagePorAprobar {
		t.Fatalf("order mutated after denied approve: %q", o.Status)
	}
}

func TestApproveWrongStageDenied(t *testing.T) {
	s := New(seedOrders())
	if err := s.Approve("o2", "c2"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for En Producción order, got %v", err)
	}
}

func TestReorderWithinColumn(t *testing.T) {
	s := New(nil)
	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.Create(Order{ID: id, CustomerID: "c1", Status: pipeline.StageSolicitud}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	if _, err := s.Create(Order{ID: "z", CustomerID: "c1", Status: pipeline.StageDespacho}); err != nil {
		t.Fatalf("Create z: %v", err)
	}

	if err := s.Reorder(pipeline.StageSolicitud, 0, 2); err != nil {
		t.Fatalf("Reorder: %v", err)
	}

	var got []string
	for _, o := range s.All() {
		if o.Status == pipeline.StageSolicitud {
			got = append(got, o.ID)
		}
	}
	want := []string{"b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column order = %v, want %v", got, want)
		}
	}

	// Reorder never touches stages.
	for _, o := range s.All() {
		if o.ID == "z" && o.Status != pipeline.StageDespacho {
			t.Fatalf("unrelated order moved to %q", o.Status)
		}
	}
}

func TestReorderIndexOutOfRange(t *testing.T) {
	s := New(seedOrders())
	if err := s.Reorder(pipeline.StageSolicitud, 0, 5); err == nil {
		t.Fatal("out-of-range reorder accepted")
	}
	if err := s.Reorder(pipeline.StageTerminado, 0, 0); err == nil {
		t.Fatal("reorder in empty column accepted")
	}
}

func TestQueryFiltersClientOrders(t *testing.T) {
	s := New(seedOrders())

	all := s.Query(pipeline.RoleOperations, "")
	if len(all) != 3 {
		t.Fatalf("operations sees %d orders, want 3", len(all))
	}

	mine := s.Query(pipeline.RoleClient, "c1")
	if len(mine) != 2 {
		t.Fatalf("client c1 sees %d orders, want 2", len(mine))
	}
	for _, o := range mine {
		if o.CustomerID != "c1" {
			t.Fatalf("client c1 sees foreign order %s", o.ID)
		}
	}
}

func TestQueryReturnsCopies(t *testing.T) {
	s := New(seedOrders())
	out := s.Query(pipeline.RoleAdmin, "")
	out[0].TotalAmount = 1
	out[0].Items[0].Finishing[0] = "mutated"

	again, _ := s.Get(out[0].ID)
	if again.TotalAmount == 1 {
		t.Fatal("store order mutated through a query copy")
	}
	if again.Items[0].Finishing[0] == "mutated" {
		t.Fatal("store item mutated through a query copy")
	}
}

func TestReplaceSwapsOrderSet(t *testing.T) {
	s := New(seedOrders())
	s.Replace([]Order{{ID: "n1", CustomerID: "c3", Status: pipeline.StageDespacho, FileStatus: FileVerde}})

	all := s.All()
	if len(all) != 1 || all[0].ID != "n1" {
		t.Fatalf("replace result: %+v", all)
	}
}
