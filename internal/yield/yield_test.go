package yield

import (
	"errors"
	"testing"
)

func TestForPieceFullPlatePiece(t *testing.T) {
	// 120x240 piece on a 122x244 plate: exactly one per plate.
	est, err := ForPiece(120, 240, 50)
	if err != nil {
		t.Fatalf("ForPiece returned error: %v", err)
	}
	if est.PiecesPerPlate != 1 {
		t.Fatalf("piecesPerPlate = %d, want 1", est.PiecesPerPlate)
	}
	if est.PlatesNeeded != 50 {
		t.Fatalf("platesNeeded = %d, want 50", est.PlatesNeeded)
	}
	if est.WasteFraction < 0 || est.WasteFraction > 1 {
		t.Fatalf("wasteFraction %v out of [0,1]", est.WasteFraction)
	}
}

func TestForPiecePicksBetterOrientation(t *testing.T) {
	// 244x122 only fits rotated.
	est, err := ForPiece(244, 122, 1)
	if err != nil {
		t.Fatalf("ForPiece returned error: %v", err)
	}
	if est.PiecesPerPlate != 1 {
		t.Fatalf("piecesPerPlate = %d, want 1 (rotated fit)", est.PiecesPerPlate)
	}
	if est.WasteFraction != 0 {
		t.Fatalf("wasteFraction = %v, want 0 for an exact fit", est.WasteFraction)
	}
}

func TestForPieceSmallPieces(t *testing.T) {
	est, err := ForPiece(50, 50, 200)
	if err != nil {
		t.Fatalf("ForPiece returned error: %v", err)
	}
	// floor(122/50)*floor(244/50) = 2*4 = 8 in both orientations.
	if est.PiecesPerPlate != 8 {
		t.Fatalf("piecesPerPlate = %d, want 8", est.PiecesPerPlate)
	}
	if est.PlatesNeeded != 25 {
		t.Fatalf("platesNeeded = %d, want 25", est.PlatesNeeded)
	}
}

func TestForPieceInfeasibleGeometry(t *testing.T) {
	_, err := ForPiece(300, 300, 10)
	if !errors.Is(err, ErrInfeasibleGeometry) {
		t.Fatalf("expected ErrInfeasibleGeometry, got %v", err)
	}
}

func TestForPieceRejectsInvalidInputs(t *testing.T) {
	cases := []struct {
		name string
		w, h float64
		qty  int
	}{
		{"zero width", 0, 10, 1},
		{"negative height", 10, -1, 1},
		{"zero quantity", 10, 10, 0},
	}
	for _, tc := range cases {
		if _, err := ForPiece(tc.w, tc.h, tc.qty); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestPlatesNeededMonotonicInQuantity(t *testing.T) {
	prev := 0
	for q := 1; q <= 500; q += 7 {
		est, err := ForPiece(60, 90, q)
		if err != nil {
			t.Fatalf("quantity %d: %v", q, err)
		}
		if est.PlatesNeeded < prev {
			t.Fatalf("platesNeeded decreased: quantity %d gives %d, previous %d", q, est.PlatesNeeded, prev)
		}
		prev = est.PlatesNeeded
	}
}

func TestWasteFractionAlwaysInRange(t *testing.T) {
	dims := []struct{ w, h float64 }{
		{10, 10}, {61, 61}, {120, 240}, {122, 244}, {33.3, 47.9}, {121, 243},
	}
	for _, d := range dims {
		est, err := ForPiece(d.w, d.h, 13)
		if err != nil {
			t.Fatalf("%vx%v: %v", d.w, d.h, err)
		}
		if est.WasteFraction < 0 || est.WasteFraction > 1 {
			t.Fatalf("%vx%v: wasteFraction %v out of [0,1]", d.w, d.h, est.WasteFraction)
		}
		if est.WastePercent() < 0 || est.WastePercent() > 100 {
			t.Fatalf("%vx%v: wastePercent %d out of [0,100]", d.w, d.h, est.WastePercent())
		}
		if est.UtilizationPercent()+est.WastePercent() < 99 || est.UtilizationPercent()+est.WastePercent() > 101 {
			t.Fatalf("%vx%v: utilization %d + waste %d far from 100", d.w, d.h, est.UtilizationPercent(), est.WastePercent())
		}
	}
}
