package opt

import (
	"math"
	"testing"
)

// Sphere function: f(x) = sum(x_i^2), minimum at origin
func sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func TestMayflyAdapterOnSphere(t *testing.T) {
	optimizer := NewMayfly(100, 20, 42)

	dim := 3
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := 0; i < dim; i++ {
		lower[i] = -10
		upper[i] = 10
	}

	best, cost := optimizer.Run(sphere, lower, upper, dim)

	if len(best) != dim {
		t.Fatalf("Expected %d parameters, got %d", dim, len(best))
	}
	if cost > 0.1 {
		t.Errorf("Expected cost near 0, got %f", cost)
	}
	for i, v := range best {
		if math.Abs(v) > 1.0 {
			t.Errorf("Parameter %d = %f, expected near 0", i, v)
		}
	}
}

func TestMayflyAdapterRaisesPopulation(t *testing.T) {
	if got := NewMayfly(10, 5, 1).PopSize(); got != MinMayflyPopulation {
		t.Errorf("Expected population %d, got %d", MinMayflyPopulation, got)
	}
	if got := NewMayfly(10, 40, 1).PopSize(); got != 40 {
		t.Errorf("Expected population 40, got %d", got)
	}
}

func TestBinarize(t *testing.T) {
	mask := Binarize([]float64{0, 0.49, 0.5, 1})
	want := []int{0, 0, 1, 1}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("bit %d: expected %d, got %d", i, want[i], mask[i])
		}
	}
}

func TestSelectFeaturesFindsImportantFeature(t *testing.T) {
	// Cost is lowest when exactly feature 0 is selected.
	fitness := func(mask []int) float64 {
		cost := 0.0
		if mask[0] == 0 {
			cost += 1
		}
		for _, bit := range mask[1:] {
			cost += 0.1 * float64(bit)
		}
		return cost
	}

	mask, cost, evals := SelectFeatures(NewMayfly(60, 20, 7), fitness, 4)

	if len(mask) != 4 {
		t.Fatalf("Expected mask of 4, got %d", len(mask))
	}
	if mask[0] != 1 {
		t.Errorf("Expected feature 0 selected, got mask %v", mask)
	}
	if cost >= 1 {
		t.Errorf("Expected cost below 1, got %f", cost)
	}
	if evals == 0 {
		t.Error("Expected fitness evaluations to be counted")
	}
}

func TestMayflyAdapterDeterministic(t *testing.T) {
	fitness := func(mask []int) float64 {
		return float64(mask[0]+mask[2]) + 0.5*float64(1-mask[1])
	}

	// popSize must be >=20 for mayfly v0.1.0
	mask1, cost1, _ := SelectFeatures(NewMayfly(30, 20, 123), fitness, 3)
	mask2, cost2, _ := SelectFeatures(NewMayfly(30, 20, 123), fitness, 3)

	if cost1 != cost2 {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", cost1, cost2)
	}
	for i := range mask1 {
		if mask1[i] != mask2[i] {
			t.Errorf("Non-deterministic mask at %d: %v vs %v", i, mask1, mask2)
		}
	}
}
