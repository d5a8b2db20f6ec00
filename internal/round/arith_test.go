package round

import (
	"math"
	"math/big"
	"math/rand"
	"testing"
)

func exact(x float64) *big.Rat {
	return new(big.Rat).SetFloat64(x)
}

// checkUp fails unless got >= want and Prev(got) < want.
func checkUp(t *testing.T, op string, a, b, got float64, want *big.Rat) {
	t.Helper()
	if exact(got).Cmp(want) < 0 {
		t.Errorf("%s(%v, %v) = %v is below the exact result", op, a, b, got)
	}
	if exact(Prev(got)).Cmp(want) >= 0 {
		t.Errorf("%s(%v, %v) = %v is more than one step above the exact result", op, a, b, got)
	}
}

func checkDown(t *testing.T, op string, a, b, got float64, want *big.Rat) {
	t.Helper()
	if exact(got).Cmp(want) > 0 {
		t.Errorf("%s(%v, %v) = %v is above the exact result", op, a, b, got)
	}
	if exact(Next(got)).Cmp(want) <= 0 {
		t.Errorf("%s(%v, %v) = %v is more than one step below the exact result", op, a, b, got)
	}
}

// operands returns a deterministic mix of signs and magnitudes.
func operands(n int) [][2]float64 {
	rng := rand.New(rand.NewSource(7))
	out := [][2]float64{
		{0.1, 0.2},
		{1, 3},
		{-1, 3},
		{2, -0.5},
		{1e16, 1},
		{0.3, -0.1},
	}
	for i := 0; i < n; i++ {
		a := (rng.Float64() - 0.5) * math.Pow(10, float64(rng.Intn(20)-10))
		b := (rng.Float64() - 0.5) * math.Pow(10, float64(rng.Intn(20)-10))
		out = append(out, [2]float64{a, b})
	}
	return out
}

func TestAddSub_Directed(t *testing.T) {
	for _, p := range operands(500) {
		a, b := p[0], p[1]
		sum := new(big.Rat).Add(exact(a), exact(b))
		diff := new(big.Rat).Sub(exact(a), exact(b))

		checkUp(t, "AddUp", a, b, AddUp(a, b), sum)
		checkDown(t, "AddDown", a, b, AddDown(a, b), sum)
		checkUp(t, "SubUp", a, b, SubUp(a, b), diff)
		checkDown(t, "SubDown", a, b, SubDown(a, b), diff)
	}
}

func TestMulDiv_Directed(t *testing.T) {
	for _, p := range operands(500) {
		a, b := p[0], p[1]
		if b == 0 {
			continue
		}
		prod := new(big.Rat).Mul(exact(a), exact(b))
		quo := new(big.Rat).Quo(exact(a), exact(b))

		checkUp(t, "MulUp", a, b, MulUp(a, b), prod)
		checkDown(t, "MulDown", a, b, MulDown(a, b), prod)
		checkUp(t, "DivUp", a, b, DivUp(a, b), quo)
		checkDown(t, "DivDown", a, b, DivDown(a, b), quo)
	}
}

func TestDirected_ExactResultsUntouched(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"AddUp(1, -1)", AddUp(1, -1), 0},
		{"SubUp(1, -1)", SubUp(1, -1), 2},
		{"SubDown(0.75, 1)", SubDown(0.75, 1), -0.25},
		{"MulUp(0.5, 3)", MulUp(0.5, 3), 1.5},
		{"DivDown(1, 2)", DivDown(1, 2), 0.5},
		{"DivUp(-3, 4)", DivUp(-3, 4), -0.75},
		{"SqrtUp(4)", SqrtUp(4), 2},
		{"SqrtUp(0)", SqrtUp(0), 0},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestDirected_Overflow(t *testing.T) {
	if got := AddDown(math.MaxFloat64, math.MaxFloat64); got != math.MaxFloat64 {
		t.Errorf("AddDown(max, max): got %v, want max", got)
	}
	if got := AddUp(math.MaxFloat64, math.MaxFloat64); !math.IsInf(got, 1) {
		t.Errorf("AddUp(max, max): got %v, want +Inf", got)
	}
	if got := MulUp(-math.MaxFloat64, 2); got != -math.MaxFloat64 {
		t.Errorf("MulUp(-max, 2): got %v, want -max", got)
	}
	if got := MulUp(2, math.Inf(-1)); !math.IsInf(got, -1) {
		t.Errorf("MulUp(2, -Inf): got %v, want -Inf", got)
	}
}

func TestDirected_Subnormal(t *testing.T) {
	tiny := math.SmallestNonzeroFloat64
	if got := MulUp(tiny, 0.5); got != tiny {
		t.Errorf("MulUp(min, 0.5): got %v, want %v", got, tiny)
	}
	if got := MulDown(tiny, 0.5); got != 0 {
		t.Errorf("MulDown(min, 0.5): got %v, want 0", got)
	}
}

func TestUint64Directed(t *testing.T) {
	for _, n := range []uint64{1, 1000, 1 << 53, 1<<53 + 1, 1<<53 + 3, 1<<63 + 1, math.MaxUint64 - 1, math.MaxUint64} {
		exactN := new(big.Rat).SetInt(new(big.Int).SetUint64(n))

		up := Uint64Up(n)
		if exact(up).Cmp(exactN) < 0 {
			t.Errorf("Uint64Up(%d) = %v is below n", n, up)
		}
		if exact(Prev(up)).Cmp(exactN) >= 0 {
			t.Errorf("Uint64Up(%d) = %v is more than one step high", n, up)
		}

		down := Uint64Down(n)
		if exact(down).Cmp(exactN) > 0 {
			t.Errorf("Uint64Down(%d) = %v is above n", n, down)
		}
		if exact(Next(down)).Cmp(exactN) <= 0 {
			t.Errorf("Uint64Down(%d) = %v is more than one step low", n, down)
		}
	}

	if got := Uint64Up(1<<53 + 1); got != 1<<53+2 {
		t.Errorf("Uint64Up(2^53+1): got %v, want 2^53+2", got)
	}
	if got := Uint64Down(1<<53 + 1); got != 1<<53 {
		t.Errorf("Uint64Down(2^53+1): got %v, want 2^53", got)
	}
}

func TestSqrtUp(t *testing.T) {
	for _, x := range []float64{2, 3, 0.1, 1e-200, 1e300, 12345.678} {
		got := SqrtUp(x)
		sq := new(big.Rat).Mul(exact(got), exact(got))
		if sq.Cmp(exact(x)) < 0 {
			t.Errorf("SqrtUp(%v) = %v squares below x", x, got)
		}
		prev := Prev(got)
		if new(big.Rat).Mul(exact(prev), exact(prev)).Cmp(exact(x)) >= 0 {
			t.Errorf("SqrtUp(%v) = %v is more than one step high", x, got)
		}
	}
}

func TestLogWrappers(t *testing.T) {
	if got := LogUp(1); got <= 0 {
		t.Errorf("LogUp(1): got %v, want > 0", got)
	}
	if got, want := LogUp(math.E), NextK(math.Log(math.E), LibmErrorLimit); got != want {
		t.Errorf("LogUp(e): got %v, want %v", got, want)
	}
	if got, want := LogDown(0.05), PrevK(math.Log(0.05), LibmErrorLimit); got != want {
		t.Errorf("LogDown(0.05): got %v, want %v", got, want)
	}
	if got := Log2Down(8); got >= 3 || got < PrevK(3, LibmErrorLimit) {
		t.Errorf("Log2Down(8): got %v, want within %d steps below 3", got, LibmErrorLimit)
	}
	if got := Log2Down(1); got >= 0 {
		t.Errorf("Log2Down(1): got %v, want < 0", got)
	}
}
