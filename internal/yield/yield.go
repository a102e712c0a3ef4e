// Package yield estimates how many pieces of a given size fit on the raw
// material plates the shop buys, and how many plates a job needs.
//
// The estimator tries the piece in its given orientation and rotated 90° and
// keeps the better axis-aligned grid. This is a deliberate heuristic, not an
// optimal 2D nesting solution.
package yield

import (
	"errors"
	"fmt"
	"math"
)

// Standard plate size in cm.
const (
	DefaultPlateWidth  = 122.0
	DefaultPlateHeight = 244.0
)

// ErrInfeasibleGeometry means the piece does not fit the plate in either
// orientation. Callers must block the quote instead of pricing zero plates.
var ErrInfeasibleGeometry = errors.New("la pieza no cabe en la plancha en ninguna orientación")

// Estimate is the material usage projection for one job.
type Estimate struct {
	PiecesPerPlate int
	PlatesNeeded   int
	// WasteFraction is the share of plate area left unused, in [0, 1].
	WasteFraction float64
}

// UtilizationPercent returns the used share of the plate as a whole percent.
func (e Estimate) UtilizationPercent() int {
	return int(math.Round((1 - e.WasteFraction) * 100))
}

// WastePercent returns the wasted share of the plate as a whole percent.
func (e Estimate) WastePercent() int {
	return int(math.Round(e.WasteFraction * 100))
}

// ForPiece estimates usage of the standard 122x244 plate.
func ForPiece(pieceWidth, pieceHeight float64, quantity int) (Estimate, error) {
	return ForPieceOnPlate(pieceWidth, pieceHeight, DefaultPlateWidth, DefaultPlateHeight, quantity)
}

// ForPieceOnPlate estimates usage of an arbitrary plate size.
func ForPieceOnPlate(pieceWidth, pieceHeight, plateWidth, plateHeight float64, quantity int) (Estimate, error) {
	if pieceWidth <= 0 || pieceHeight <= 0 {
		return Estimate{}, fmt.Errorf("dimensiones de pieza inválidas: %vx%v", pieceWidth, pieceHeight)
	}
	if plateWidth <= 0 || plateHeight <= 0 {
		return Estimate{}, fmt.Errorf("dimensiones de plancha inválidas: %vx%v", plateWidth, plateHeight)
	}
	if quantity <= 0 {
		return Estimate{}, fmt.Errorf("cantidad inválida: %d", quantity)
	}

	// Grid fit in the given orientation and rotated 90°.
	asGiven := int(plateWidth/pieceWidth) * int(plateHeight/pieceHeight)
	rotated := int(plateWidth/pieceHeight) * int(plateHeight/pieceWidth)

	piecesPerPlate := asGiven
	if rotated > piecesPerPlate {
		piecesPerPlate = rotated
	}
	if piecesPerPlate == 0 {
		return Estimate{}, ErrInfeasibleGeometry
	}

	platesNeeded := (quantity + piecesPerPlate - 1) / piecesPerPlate

	usefulArea := float64(piecesPerPlate) * pieceWidth * pieceHeight
	waste := 1 - usefulArea/(plateWidth*plateHeight)
	if waste < 0 {
		waste = 0
	}
	if waste > 1 {
		waste = 1
	}

	return Estimate{
		PiecesPerPlate: piecesPerPlate,
		PlatesNeeded:   platesNeeded,
		WasteFraction:  waste,
	}, nil
}
