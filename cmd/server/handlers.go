package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/viuworks/taller/internal/capacity"
	"github.com/viuworks/taller/internal/catalog"
	"github.com/viuworks/taller/internal/draft"
	"github.com/viuworks/taller/internal/pipeline"
	"github.com/viuworks/taller/internal/pricing"
	"github.com/viuworks/taller/internal/snapshot"
	"github.com/viuworks/taller/internal/store"
	"github.com/viuworks/taller/internal/yield"
)

type contextKey string

const sessionContextKey contextKey = "session"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.fromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "sesión no iniciada")
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) session {
	sess, _ := r.Context().Value(sessionContextKey).(session)
	return sess
}

// pricingConfig returns a copy of the live pricing configuration.
func (s *server) pricingConfig() pricing.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pricingCfg
}

// loadPercent computes the plant load from everything currently in
// production.
func (s *server) loadPercent() int {
	return capacity.LoadPercent(s.store.All(), s.maxCapacity)
}

// persist writes the current board and pricing configuration to the
// snapshot table. Failures are logged, never surfaced: the in-memory
// state is authoritative while the process lives.
func (s *server) persist() {
	state := snapshot.State{
		Orders:        s.store.All(),
		PricingConfig: s.pricingConfig(),
	}
	if err := snapshot.Save(s.db, snapshot.StoreName, state); err != nil {
		log.Printf("persist snapshot: %v", err)
	}
}

// --- sesión ---

type sessionRequest struct {
	Role       string `json:"role"`
	CustomerID string `json:"customerId"`
}

func (s *server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	role := pipeline.Role(req.Role)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "rol desconocido: "+req.Role)
		return
	}

	customerID := ""
	if role == pipeline.RoleClient {
		customerID = req.CustomerID
		if customerID == "" {
			// Demo linkage: a client session without an explicit
			// customer acts as the first seeded account.
			customerID = "c1"
		}
		if _, ok := s.registry.Customer(customerID); !ok {
			writeError(w, http.StatusBadRequest, "cliente desconocido: "+customerID)
			return
		}
	}

	sess := session{Role: role, CustomerID: customerID}
	s.sessions.setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, map[string]string{
		"role":       string(sess.Role),
		"customerId": sess.CustomerID,
	})
}

func (s *server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	s.sessions.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// --- tablero ---

type boardColumn struct {
	Stage       pipeline.Stage `json:"stage"`
	Count       int            `json:"count"`
	TotalAmount int64          `json:"totalAmount"`
	Orders      []store.Order  `json:"orders"`
}

type boardResponse struct {
	LoadPercent int           `json:"loadPercent"`
	Columns     []boardColumn `json:"columns"`
}

func (s *server) handleBoard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	orders := s.store.Query(sess.Role, sess.CustomerID)

	columns := make([]boardColumn, 0, len(pipeline.Stages))
	for _, stage := range pipeline.Stages {
		col := boardColumn{Stage: stage, Orders: []store.Order{}}
		for _, o := range orders {
			if o.Status != stage {
				continue
			}
			col.Orders = append(col.Orders, o)
			col.Count++
			col.TotalAmount += o.TotalAmount
		}
		columns = append(columns, col)
	}

	writeJSON(w, http.StatusOK, boardResponse{
		LoadPercent: s.loadPercent(),
		Columns:     columns,
	})
}

func (s *server) handleOrdersList(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	writeJSON(w, http.StatusOK, s.store.Query(sess.Role, sess.CustomerID))
}

// --- órdenes ---

type orderCreateRequest struct {
	CustomerID    string   `json:"customerId"`
	CampaignName  string   `json:"campaignName"`
	Description   string   `json:"description"`
	MaterialID    string   `json:"materialId"`
	Width         float64  `json:"width"`
	Height        float64  `json:"height"`
	Quantity      int      `json:"quantity"`
	Finishing     []string `json:"finishing"`
	DeliveryDate  string   `json:"deliveryDate"`
	DeliveryTier  string   `json:"deliveryTier"`
	SupervisorKey string   `json:"supervisorKey"`
}

type orderCreateResponse struct {
	Order store.Order    `json:"order"`
	Quote pricing.Result `json:"quote"`
}

func (s *server) handleOrderCreate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.Role != pipeline.RoleAdmin && sess.Role != pipeline.RoleSuperadmin {
		writeError(w, http.StatusForbidden, "rol sin permiso para crear órdenes")
		return
	}

	var req orderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	if strings.TrimSpace(req.CampaignName) == "" {
		writeError(w, http.StatusBadRequest, "campaignName es obligatorio")
		return
	}
	customer, ok := s.registry.Customer(req.CustomerID)
	if !ok {
		writeError(w, http.StatusBadRequest, "cliente desconocido: "+req.CustomerID)
		return
	}
	material, ok := s.registry.Material(req.MaterialID)
	if !ok {
		writeError(w, http.StatusBadRequest, "material desconocido: "+req.MaterialID)
		return
	}

	tier := pricing.DeliveryTier(req.DeliveryTier)
	if req.DeliveryTier == "" {
		tier = pricing.TierEconomico
	}
	if !tier.Valid() {
		writeError(w, http.StatusBadRequest, "modalidad de entrega desconocida: "+req.DeliveryTier)
		return
	}

	cfg := s.pricingConfig()
	item := pricing.ItemInput{
		PieceWidth:   req.Width,
		PieceHeight:  req.Height,
		Quantity:     req.Quantity,
		PricePerUnit: effectiveUnitPrice(cfg, material),
	}

	result, err := pricing.Quote(item, string(customer.Type), cfg, tier)
	if err != nil {
		if errors.Is(err, yield.ErrInfeasibleGeometry) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if tier == pricing.TierExpress {
		load := s.loadPercent()
		if capacity.ExpressNeedsOverride(load) && !s.authorizer.Authorize(req.SupervisorKey) {
			writeError(w, http.StatusConflict, "planta sobre el 80% de carga: entrega Express requiere autorización de supervisor")
			return
		}
	}

	order, err := s.store.Create(store.Order{
		CustomerID:   req.CustomerID,
		CampaignName: req.CampaignName,
		Description:  req.Description,
		Items: []store.OrderItem{{
			MaterialID: req.MaterialID,
			Width:      req.Width,
			Height:     req.Height,
			Quantity:   req.Quantity,
			Finishing:  req.Finishing,
		}},
		TotalAmount:  result.Total,
		DeliveryDate: req.DeliveryDate,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.persist()
	writeJSON(w, http.StatusCreated, orderCreateResponse{Order: order, Quote: result})
}

type statusRequest struct {
	Status        string `json:"status"`
	SupervisorKey string `json:"supervisorKey"`
}

func (s *server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := chi.URLParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	target := pipeline.Stage(req.Status)
	if !target.Valid() {
		writeError(w, http.StatusBadRequest, "estado desconocido: "+req.Status)
		return
	}

	order, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if order.Status == target {
		// Dropping a card back on its own column is not a transition.
		writeJSON(w, http.StatusOK, order)
		return
	}

	if !pipeline.CanTransition(sess.Role, order.Status, target, order.CustomerID, sess.CustomerID) {
		writeError(w, http.StatusForbidden, "transición no permitida para el rol "+string(sess.Role))
		return
	}

	if target == pipeline.StageEnProduccion && capacity.Saturated(s.loadPercent()) {
		if !s.authorizer.Authorize(req.SupervisorKey) {
			writeError(w, http.StatusConflict, "planta saturada: ingreso a producción requiere autorización de supervisor")
			return
		}
	}

	if err := s.store.SetStatus(id, target); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.persist()
	order, _ = s.store.Get(id)
	writeJSON(w, http.StatusOK, order)
}

type approveRequest struct {
	SupervisorKey string `json:"supervisorKey"`
}

func (s *server) handleOrderApprove(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.Role != pipeline.RoleClient {
		writeError(w, http.StatusForbidden, "solo el cliente puede aprobar su orden")
		return
	}
	id := chi.URLParam(r, "id")

	var req approveRequest
	if r.Body != nil {
		// The body is optional; a missing supervisor key only matters
		// when the plant is saturated.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if capacity.Saturated(s.loadPercent()) && !s.authorizer.Authorize(req.SupervisorKey) {
		writeError(w, http.StatusConflict, "planta saturada: ingreso a producción requiere autorización de supervisor")
		return
	}

	if err := s.store.Approve(id, sess.CustomerID); err != nil {
		switch {
		case errors.Is(err, store.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, store.ErrInvalidTransition):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	s.persist()
	order, _ := s.store.Get(id)
	writeJSON(w, http.StatusOK, order)
}

type fileStatusRequest struct {
	FileStatus string `json:"fileStatus"`
}

func (s *server) handleFileStatus(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	switch sess.Role {
	case pipeline.RoleAdmin, pipeline.RoleSuperadmin, pipeline.RoleOperations:
	default:
		writeError(w, http.StatusForbidden, "rol sin permiso para revisar archivos")
		return
	}
	id := chi.URLParam(r, "id")

	var req fileStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	if err := s.store.SetFileStatus(id, store.FileStatus(req.FileStatus)); err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.persist()
	order, _ := s.store.Get(id)
	writeJSON(w, http.StatusOK, order)
}

type reorderRequest struct {
	Stage     string `json:"stage"`
	FromIndex int    `json:"fromIndex"`
	ToIndex   int    `json:"toIndex"`
}

func (s *server) handleReorder(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !sess.Role.CanDrag() {
		writeError(w, http.StatusForbidden, "rol sin permiso para reordenar el tablero")
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	if err := s.store.Reorder(pipeline.Stage(req.Stage), req.FromIndex, req.ToIndex); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.persist()
	w.WriteHeader(http.StatusNoContent)
}

// --- cotización ---

type quotePreviewRequest struct {
	CustomerID string  `json:"customerId"`
	MaterialID string  `json:"materialId"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Quantity   int     `json:"quantity"`
}

type quotePreviewResponse struct {
	Breakdown            pricing.Breakdown    `json:"breakdown"`
	Options              []pricing.TierOption `json:"options"`
	UtilizationPercent   int                  `json:"utilizationPercent"`
	WastePercent         int                  `json:"wastePercent"`
	LoadPercent          int                  `json:"loadPercent"`
	ExpressNeedsOverride bool                 `json:"expressNeedsOverride"`
}

func (s *server) handleQuotePreview(w http.ResponseWriter, r *http.Request) {
	var req quotePreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	customer, ok := s.registry.Customer(req.CustomerID)
	if !ok {
		writeError(w, http.StatusBadRequest, "cliente desconocido: "+req.CustomerID)
		return
	}
	material, ok := s.registry.Material(req.MaterialID)
	if !ok {
		writeError(w, http.StatusBadRequest, "material desconocido: "+req.MaterialID)
		return
	}

	cfg := s.pricingConfig()
	item := pricing.ItemInput{
		PieceWidth:   req.Width,
		PieceHeight:  req.Height,
		Quantity:     req.Quantity,
		PricePerUnit: effectiveUnitPrice(cfg, material),
	}

	options, breakdown, err := pricing.Options(item, string(customer.Type), cfg)
	if err != nil {
		if errors.Is(err, yield.ErrInfeasibleGeometry) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	est := yield.Estimate{
		PiecesPerPlate: breakdown.PiecesPerPlate,
		PlatesNeeded:   breakdown.PlatesNeeded,
		WasteFraction:  breakdown.WasteFraction,
	}
	load := s.loadPercent()
	writeJSON(w, http.StatusOK, quotePreviewResponse{
		Breakdown:            breakdown,
		Options:              options,
		UtilizationPercent:   est.UtilizationPercent(),
		WastePercent:         est.WastePercent(),
		LoadPercent:          load,
		ExpressNeedsOverride: capacity.ExpressNeedsOverride(load),
	})
}

type draftRequest struct {
	Text string `json:"text"`
}

type draftResponse struct {
	Draft      draft.Draft `json:"draft"`
	MaterialID string      `json:"materialId,omitempty"`
}

func (s *server) handleQuoteDraft(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.Role != pipeline.RoleAdmin && sess.Role != pipeline.RoleSuperadmin {
		writeError(w, http.StatusForbidden, "rol sin permiso para generar borradores")
		return
	}

	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text es obligatorio")
		return
	}

	d, err := s.drafts.Extract(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, draft.ErrExternal) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, draftResponse{
		Draft:      d,
		MaterialID: s.matchMaterial(d.MaterialName),
	})
}

// matchMaterial maps a free-text material name from the draft service to a
// registry id. Matching is case-insensitive and tolerant of partial names.
func (s *server) matchMaterial(name string) string {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return ""
	}
	for _, m := range s.registry.Materials() {
		candidate := strings.ToLower(m.Name)
		if candidate == needle || strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return m.ID
		}
	}
	return ""
}

// --- capacidad ---

type capacityResponse struct {
	LoadPercent          int   `json:"loadPercent"`
	MaxCapacity          int64 `json:"maxCapacity"`
	ExpressNeedsOverride bool  `json:"expressNeedsOverride"`
	Saturated            bool  `json:"saturated"`
}

func (s *server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	load := s.loadPercent()
	writeJSON(w, http.StatusOK, capacityResponse{
		LoadPercent:          load,
		MaxCapacity:          s.maxCapacity,
		ExpressNeedsOverride: capacity.ExpressNeedsOverride(load),
		Saturated:            capacity.Saturated(load),
	})
}

type overrideRequest struct {
	SupervisorKey string `json:"supervisorKey"`
}

func (s *server) handleCapacityOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if !s.authorizer.Authorize(req.SupervisorKey) {
		writeError(w, http.StatusForbidden, "clave de supervisor inválida")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- producción ---

type productionQueueResponse struct {
	Ready   []store.Order `json:"ready"`
	Pending []store.Order `json:"pending"`
}

func (s *server) handleProductionQueue(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	switch sess.Role {
	case pipeline.RoleAdmin, pipeline.RoleSuperadmin, pipeline.RoleOperations:
	default:
		writeError(w, http.StatusForbidden, "rol sin acceso a la cola de producción")
		return
	}

	ready := []store.Order{}
	pending := []store.Order{}
	for _, o := range s.store.All() {
		switch {
		case o.Status == pipeline.StageEnProduccion && o.FileStatus == store.FileVerde:
			ready = append(ready, o)
		case o.Status == pipeline.StageEnProduccion,
			o.Status == pipeline.StagePorAprobar,
			o.Status == pipeline.StageSolicitud && o.FileStatus != store.FileVerde:
			pending = append(pending, o)
		}
	}
	sortByDelivery(ready)
	sortByDelivery(pending)

	writeJSON(w, http.StatusOK, productionQueueResponse{Ready: ready, Pending: pending})
}

// sortByDelivery orders by delivery date ascending, undated orders last.
// The sort is stable so board position breaks ties.
func sortByDelivery(orders []store.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].DeliveryDate, orders[j].DeliveryDate
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})
}

// --- catálogo ---

func (s *server) handleMaterials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Materials())
}

func (s *server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Customers())
}

// --- configuración de precios ---

func (s *server) handlePricingConfigGet(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.Role != pipeline.RoleAdmin && sess.Role != pipeline.RoleSuperadmin {
		writeError(w, http.StatusForbidden, "rol sin acceso a la configuración de precios")
		return
	}
	writeJSON(w, http.StatusOK, s.pricingConfig())
}

func (s *server) handlePricingConfigPut(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.Role != pipeline.RoleAdmin && sess.Role != pipeline.RoleSuperadmin {
		writeError(w, http.StatusForbidden, "rol sin acceso a la configuración de precios")
		return
	}

	var cfg pricing.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.pricingCfg = cfg
	s.mu.Unlock()

	s.persist()
	writeJSON(w, http.StatusOK, cfg)
}

// effectiveUnitPrice resolves the plate price for a material, honoring the
// configurable overrides for the two flagship materials.
func effectiveUnitPrice(cfg pricing.Config, m catalog.Material) int64 {
	name := strings.ToLower(m.Name)
	switch {
	case strings.Contains(name, "foam") && cfg.FoamPrice > 0:
		return cfg.FoamPrice
	case strings.Contains(name, "vinilo") && cfg.VinylPrice > 0:
		return cfg.VinylPrice
	}
	return m.PricePerUnit
}
