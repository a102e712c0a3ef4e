package pipeline

// Stage is one step of the production pipeline. The board shows one column
// per stage; values match the column labels so persisted data stays readable.
type Stage string

const (
	StageSolicitud    Stage = "Solicitud"
	StagePorAprobar   Stage = "Por Aprobar"
	StageEnProduccion Stage = "En Producción"
	StageDespacho     Stage = "Despacho"
	StageTerminado    Stage = "Terminado"
)

// Stages is the canonical pipeline order.
var Stages = [...]Stage{
	StageSolicitud,
	StagePorAprobar,
	StageEnProduccion,
	StageDespacho,
	StageTerminado,
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Index returns the position of s in the canonical pipeline, or -1.
func (s Stage) Index() int {
	for i, stage := range Stages {
		if s == stage {
			return i
		}
	}
	return -1
}

// Next returns the successor stage. ok is false for the last stage
// and for unknown stages.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(Stages) {
		return "", false
	}
	return Stages[i+1], true
}

// Normalize maps unknown stage labels (from older persisted boards) to the
// first column, the same fallback the board applies when grouping.
func Normalize(s Stage) Stage {
	if s.Valid() {
		return s
	}
	return StageSolicitud
}

// Role identifies who is acting on the board.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
	RoleOperations Role = "operations"
	RoleClient     Role = "client"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSuperadmin, RoleOperations, RoleClient:
		return true
	}
	return false
}

// CanDrag reports whether the role may drag cards at all. Clients interact
// through the approve action only.
func (r Role) CanDrag() bool {
	switch r {
	case RoleAdmin, RoleSuperadmin, RoleOperations:
		return true
	}
	return false
}

// operationsStages is the subset of columns operations may move orders
// between. Both endpoints of a move must be inside it.
var operationsStages = map[Stage]bool{
	StagePorAprobar:   true,
	StageEnProduccion: true,
	StageDespacho:     true,
	StageTerminado:    true,
}

// CanTransition reports whether role may move an order from one stage to
// another. ownerID is the customer that owns the order and actingCustomerID
// the customer linked to the acting session (empty for staff roles).
//
// A same-stage "transition" is a pure reorder; it is allowed for every role
// with drag enabled and must never reach the status mutation.
func CanTransition(role Role, from, to Stage, ownerID, actingCustomerID string) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return role.CanDrag()
	}

	switch role {
	case RoleAdmin, RoleSuperadmin:
		// Staff may jump stages freely, including backwards, for manual
		// correction.
		return true
	case RoleOperations:
		return operationsStages[from] && operationsStages[to]
	case RoleClient:
		return from == StagePorAprobar &&
			to == StageEnProduccion &&
			ownerID != "" &&
			ownerID == actingCustomerID
	}
	return false
}
