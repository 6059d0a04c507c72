package fixedpoint

import "testing"

func TestMulFloor_RoundsDown(t *testing.T) {
	got, err := MulFloor(10, 1, 3)
	if err != nil {
		t.Fatalf("mul floor: %v", err)
	}
	if got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMulFloor_ExactDivision(t *testing.T) {
	got, err := MulFloor(10_000_000, Scale, Scale)
	if err != nil {
		t.Fatalf("mul floor: %v", err)
	}
	if got != 10_000_000 {
		t.Fatalf("expected 10_000_000, got %d", got)
	}
}

func TestDivFloor_FractionAtScale(t *testing.T) {
	// 31_536 of 31_536_000 is exactly 0.1% => 10_000 at Scale=1e7.
	got, err := DivFloor(31_536, 31_536_000, Scale)
	if err != nil {
		t.Fatalf("div floor: %v", err)
	}
	if got != 10_000 {
		t.Fatalf("expected 10_000, got %d", got)
	}
}

func TestMulFloor_WideIntermediate(t *testing.T) {
	// a*b overflows int64 but the quotient fits.
	const big = int64(1) << 62
	got, err := MulFloor(big, 4, 8)
	if err != nil {
		t.Fatalf("mul floor: %v", err)
	}
	if got != big/2 {
		t.Fatalf("expected %d, got %d", big/2, got)
	}
}

func TestMulFloor_Overflow(t *testing.T) {
	const big = int64(1) << 62
	if _, err := MulFloor(big, 8, 2); err != ErrOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestMulFloor_NegativeRejected(t *testing.T) {
	if _, err := MulFloor(-1, 1, 1); err != ErrNegativeValue {
		t.Fatalf("expected negative value error, got %v", err)
	}
	if _, err := MulFloor(1, -1, 1); err != ErrNegativeValue {
		t.Fatalf("expected negative value error, got %v", err)
	}
}

func TestMulFloor_ZeroDenominator(t *testing.T) {
	if _, err := MulFloor(1, 1, 0); err != ErrDivisionByZero {
		t.Fatalf("expected division by zero, got %v", err)
	}
}
