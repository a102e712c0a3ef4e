// Package pricing turns job dimensions into a quoted price in CLP.
//
// The calculation is pure: yield estimate -> material + operational base
// cost -> customer-segment margin -> delivery-tier multiplier. All published
// amounts are integer pesos; rounding happens at the segment price and again
// after the tier multiplier.
package pricing

import (
	"fmt"
	"math"

	"github.com/viuworks/taller/internal/yield"
)

// Config holds the admin-tunable pricing parameters. It is persisted together
// with the order snapshot.
type Config struct {
	FoamPrice        int64   `json:"foamPrice"`
	VinylPrice       int64   `json:"vinylPrice"`
	LaborCostPerHour float64 `json:"laborCostPerHour"`
	// Margin is the fallback multiplier for customer segments without an
	// explicit margin tier.
	Margin float64 `json:"margin"`
}

// DefaultConfig returns the shop's starting rate card.
func DefaultConfig() Config {
	return Config{
		FoamPrice:        15000,
		VinylPrice:       3800,
		LaborCostPerHour: 21000,
		Margin:           1.40,
	}
}

// Validate checks that the config values are usable for quoting.
func (c Config) Validate() error {
	if c.FoamPrice < 0 {
		return fmt.Errorf("foamPrice debe ser mayor o igual a 0")
	}
	if c.VinylPrice < 0 {
		return fmt.Errorf("vinylPrice debe ser mayor o igual a 0")
	}
	if c.LaborCostPerHour < 0 {
		return fmt.Errorf("laborCostPerHour debe ser mayor o igual a 0")
	}
	if c.Margin < 1 {
		return fmt.Errorf("margin debe ser mayor o igual a 1")
	}
	return nil
}

// DeliveryTier is the fulfillment speed the customer picks.
type DeliveryTier string

const (
	TierEconomico DeliveryTier = "Económico"
	TierEstandar  DeliveryTier = "Estándar"
	TierExpress   DeliveryTier = "Express"
)

// Tiers lists delivery tiers from slowest to fastest.
var Tiers = [...]DeliveryTier{TierEconomico, TierEstandar, TierExpress}

// Valid reports whether t is a known tier.
func (t DeliveryTier) Valid() bool {
	switch t {
	case TierEconomico, TierEstandar, TierExpress:
		return true
	}
	return false
}

// Multiplier returns the tier's price multiplier.
func (t DeliveryTier) Multiplier() float64 {
	switch t {
	case TierEstandar:
		return 1.15
	case TierExpress:
		return 1.5
	default:
		return 1.0
	}
}

// Customer segments, matching the registry's customer type labels.
const (
	SegmentComplejo   = "Complejo"
	SegmentRecurrente = "Recurrente"
	SegmentEsporadico = "Esporádico"
)

// Fixed shop-floor time per piece, in minutes.
const (
	cutMinutesPerPiece   = 2.0
	printMinutesPerPiece = 5.0
)

// ItemInput is one quotable line item.
type ItemInput struct {
	PieceWidth  float64
	PieceHeight float64
	Quantity    int
	// PricePerUnit is the plate price of the chosen material, in CLP.
	PricePerUnit int64
}

// Breakdown exposes the intermediate values of a quote.
type Breakdown struct {
	PiecesPerPlate  int     `json:"piecesPerPlate"`
	PlatesNeeded    int     `json:"platesNeeded"`
	WasteFraction   float64 `json:"wasteFraction"`
	MaterialCost    int64   `json:"materialCost"`
	OperationalCost float64 `json:"operationalCost"`
	BaseCost        float64 `json:"baseCost"`
	Margin          float64 `json:"margin"`
}

// Result is a quote for a single delivery tier.
type Result struct {
	Breakdown Breakdown `json:"breakdown"`
	// SegmentPrice is the rounded price after the segment margin, before the
	// delivery-tier multiplier.
	SegmentPrice int64 `json:"segmentPrice"`
	// Total is the final integer price for the chosen tier.
	Total int64 `json:"total"`
}

// MarginFor returns the margin multiplier for a customer segment. Unknown
// segments use the configured fallback margin.
func MarginFor(segment string, cfg Config) float64 {
	switch segment {
	case SegmentComplejo:
		return 1.25
	case SegmentRecurrente:
		return 1.35
	case SegmentEsporadico:
		return 1.40
	}
	if cfg.Margin >= 1 {
		return cfg.Margin
	}
	return 1.40
}

// Quote prices one item for one customer segment and delivery tier.
// It returns yield.ErrInfeasibleGeometry when the piece cannot be tiled.
func Quote(item ItemInput, segment string, cfg Config, tier DeliveryTier) (Result, error) {
	est, err := yield.ForPiece(item.PieceWidth, item.PieceHeight, item.Quantity)
	if err != nil {
		return Result{}, err
	}
	if item.PricePerUnit < 0 {
		return Result{}, fmt.Errorf("precio de material inválido: %d", item.PricePerUnit)
	}

	materialCost := int64(est.PlatesNeeded) * item.PricePerUnit

	laborPerMinute := cfg.LaborCostPerHour / 60.0
	minutes := float64(item.Quantity) * (cutMinutesPerPiece + printMinutesPerPiece)
	operationalCost := minutes * laborPerMinute

	baseCost := float64(materialCost) + operationalCost
	margin := MarginFor(segment, cfg)

	segmentPrice := int64(math.Round(baseCost * margin))
	total := int64(math.Round(float64(segmentPrice) * tier.Multiplier()))

	return Result{
		Breakdown: Breakdown{
			PiecesPerPlate:  est.PiecesPerPlate,
			PlatesNeeded:    est.PlatesNeeded,
			WasteFraction:   est.WasteFraction,
			MaterialCost:    materialCost,
			OperationalCost: operationalCost,
			BaseCost:        baseCost,
			Margin:          margin,
		},
		SegmentPrice: segmentPrice,
		Total:        total,
	}, nil
}

// TierOption pairs a delivery tier with its quoted price.
type TierOption struct {
	Tier  DeliveryTier `json:"tier"`
	Total int64        `json:"total"`
}

// Options quotes all delivery tiers for the same item, slowest first.
func Options(item ItemInput, segment string, cfg Config) ([]TierOption, Breakdown, error) {
	options := make([]TierOption, 0, len(Tiers))
	var breakdown Breakdown
	for _, tier := range Tiers {
		res, err := Quote(item, segment, cfg, tier)
		if err != nil {
			return nil, Breakdown{}, err
		}
		breakdown = res.Breakdown
		options = append(options, TierOption{Tier: tier, Total: res.Total})
	}
	return options, breakdown, nil
}
