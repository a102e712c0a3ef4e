package draft

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractParsesDraft(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text == "" {
			t.Error("empty brief sent to the service")
		}

		json.NewEncoder(w).Encode(extractResponse{
			Data: Draft{
				CampaignName:  "Campaña Verano 2024",
				MaterialName:  "Foam 5MM (Fomex)",
				Width:         120,
				Height:        200,
				Quantity:      50,
				EstimatedCost: 980000,
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-token")
	d, err := client.Extract(context.Background(), "50 letreros de foam 120x200")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotPath != "/extract" {
		t.Fatalf("path = %q", gotPath)
	}
	if d.CampaignName != "Campaña Verano 2024" || d.Quantity != 50 {
		t.Fatalf("unexpected draft: %+v", d)
	}
}

func TestExtractServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(extractResponse{Code: 7, Message: "modelo sobrecargado"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k").Extract(context.Background(), "brief")
	if !errors.Is(err, ErrExternal) {
		t.Fatalf("expected ErrExternal, got %v", err)
	}
}

func TestExtractHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k").Extract(context.Background(), "brief")
	if !errors.Is(err, ErrExternal) {
		t.Fatalf("expected ErrExternal, got %v", err)
	}
}

func TestExtractUnconfigured(t *testing.T) {
	_, err := NewClient("", "").Extract(context.Background(), "brief")
	if !errors.Is(err, ErrExternal) {
		t.Fatalf("expected ErrExternal, got %v", err)
	}
	if NewClient("", "").Enabled() {
		t.Fatal("unconfigured client reports enabled")
	}
}
