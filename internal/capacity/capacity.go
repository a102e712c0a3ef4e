// Package capacity derives plant load from the order board and gates the
// actions that would overcommit the shop.
package capacity

import (
	"crypto/subtle"
	"math"

	"github.com/viuworks/taller/internal/pipeline"
	"github.com/viuworks/taller/internal/store"
)

// DefaultMaxCapacity is the financial throughput the plant can hold in
// production at once, in CLP.
const DefaultMaxCapacity int64 = 12_000_000

// Load thresholds, in whole percent.
const (
	ExpressOverrideThreshold = 80
	SaturationThreshold      = 90
)

// LoadPercent aggregates the totals of in-production orders against the
// plant capacity, as an integer in [0, 100].
func LoadPercent(orders []store.Order, maxCapacity int64) int {
	if maxCapacity <= 0 {
		return 0
	}

	var committed int64
	for _, o := range orders {
		if o.Status == pipeline.StageEnProduccion {
			committed += o.TotalAmount
		}
	}

	pct := int(math.Round(100 * float64(committed) / float64(maxCapacity)))
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// ExpressNeedsOverride reports whether creating an Express order requires a
// supervisor override at the given load.
func ExpressNeedsOverride(loadPercent int) bool {
	return loadPercent > ExpressOverrideThreshold
}

// Saturated reports whether the plant is too loaded to accept more work in
// production without supervisor authorization.
func Saturated(loadPercent int) bool {
	return loadPercent > SaturationThreshold
}

// Authorizer decides whether a supervisor credential is valid. The override
// gate consults it instead of inspecting the credential itself, so a real
// authorization backend can be plugged in.
type Authorizer interface {
	Authorize(credential string) bool
}

// KeyAuthorizer authorizes against a single configured supervisor key.
// An empty configured key denies everything.
type KeyAuthorizer struct {
	key []byte
}

func NewKeyAuthorizer(key string) *KeyAuthorizer {
	return &KeyAuthorizer{key: []byte(key)}
}

func (a *KeyAuthorizer) Authorize(credential string) bool {
	if len(a.key) == 0 || credential == "" {
		return false
	}
	return subtle.ConstantTimeCompare(a.key, []byte(credential)) == 1
}
