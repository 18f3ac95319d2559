package policy

import (
	"math/rand"
	"testing"

	"github.com/cartridge/replay/internal/spec"
)

var stepSpec = spec.Group("step",
	spec.Leaf("obs", spec.Float32, 3),
	spec.Leaf("action", spec.Int32),
	spec.Leaf("pixels", spec.Uint8, 2, 2),
	spec.Leaf("done", spec.Bool),
)

func newRandom(t *testing.T, options RandomOptions) *RandomPolicy {
	t.Helper()
	p, err := NewRandom(stepSpec, options, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("Failed to create random policy: %v", err)
	}
	return p
}

func TestRandomPolicy_Bounds(t *testing.T) {
	p := newRandom(t, RandomOptions{Low: -2, High: 2, IntLimit: 9})

	for i := 0; i < 100; i++ {
		rec, err := p.Step(0)
		if err != nil {
			t.Fatalf("Failed to step: %v", err)
		}
		if err := spec.CheckRecord(stepSpec, rec); err != nil {
			t.Fatalf("Step does not match spec: %v", err)
		}
		for _, v := range rec[0].Float32s() {
			if v < -2 || v > 2 {
				t.Errorf("Observation %v out of range [-2, 2]", v)
			}
		}
		if a := rec[1].Int32s()[0]; a < 0 || a >= 9 {
			t.Errorf("Action %d out of range [0, 8]", a)
		}
		for _, px := range rec[2].Uint8s() {
			if px >= 9 {
				t.Errorf("Pixel %d out of range [0, 8]", px)
			}
		}
	}
}

func TestRandomPolicy_MultipleSelections(t *testing.T) {
	p := newRandom(t, RandomOptions{Low: 0, High: 1, IntLimit: 9})

	actions := make(map[int32]bool)
	dones := make(map[bool]bool)
	for i := 0; i < 100; i++ {
		rec, err := p.Step(i % 3)
		if err != nil {
			t.Fatalf("Failed to step: %v", err)
		}
		actions[rec[1].Int32s()[0]] = true
		dones[rec[3].Bools()[0]] = true
	}

	// Should have at least 2 different actions (highly probable)
	if len(actions) < 2 {
		t.Errorf("Expected multiple different actions, got only %d unique actions", len(actions))
	}
	if len(dones) != 2 {
		t.Errorf("Expected both done values, got %v", dones)
	}
}

func TestRandomPolicy_InvalidOptions(t *testing.T) {
	if _, err := NewRandom(stepSpec, RandomOptions{Low: 1, High: 0, IntLimit: 1}, rand.New(rand.NewSource(1))); err == nil {
		t.Error("Expected error for inverted bounds")
	}
	if _, err := NewRandom(stepSpec, RandomOptions{IntLimit: 0}, rand.New(rand.NewSource(1))); err == nil {
		t.Error("Expected error for zero int limit")
	}
	if _, err := NewRandom(spec.Spec{Name: "bad"}, RandomOptions{IntLimit: 1}, rand.New(rand.NewSource(1))); err == nil {
		t.Error("Expected error for invalid spec")
	}
}

func TestCounterPolicy(t *testing.T) {
	p, err := NewCounter(stepSpec, 100)
	if err != nil {
		t.Fatalf("Failed to create counter policy: %v", err)
	}

	for step := 0; step < 3; step++ {
		for row := 0; row < 2; row++ {
			rec, err := p.Step(row)
			if err != nil {
				t.Fatalf("Failed to step: %v", err)
			}
			want := Value(row, step, 100)
			for _, v := range rec[0].Float32s() {
				if int(v) != want {
					t.Errorf("row %d step %d: got %v, want %d", row, step, v, want)
				}
			}
			if got := rec[1].Int32s()[0]; int(got) != want {
				t.Errorf("row %d step %d: action %d, want %d", row, step, got, want)
			}
			for _, px := range rec[2].Uint8s() {
				if int64(px) != Stored(spec.Uint8, row, step, 100) {
					t.Errorf("row %d step %d: pixel %d, want %d", row, step, px, Stored(spec.Uint8, row, step, 100))
				}
			}
		}
	}

	if _, err := p.Step(-1); err == nil {
		t.Error("Expected error for negative row")
	}
	if _, err := NewCounter(stepSpec, 0); err == nil {
		t.Error("Expected error for zero stride")
	}
}

func TestBatch(t *testing.T) {
	p, err := NewCounter(stepSpec, DefaultStride)
	if err != nil {
		t.Fatalf("Failed to create counter policy: %v", err)
	}

	batch, err := Batch(p, 4)
	if err != nil {
		t.Fatalf("Failed to build batch: %v", err)
	}
	if err := spec.CheckRecord(stepSpec, batch, 4); err != nil {
		t.Fatalf("Batch does not match spec: %v", err)
	}
	actions := batch[1].Int32s()
	for row, a := range actions {
		if int(a) != Value(row, 0, DefaultStride) {
			t.Errorf("row %d: action %d", row, a)
		}
	}
	// 3*1000 wraps to 184 in a uint8 leaf.
	pixels := batch[2].Uint8s()
	if got := pixels[3*4]; got != 184 || int64(got) != Stored(spec.Uint8, 3, 0, DefaultStride) {
		t.Errorf("row 3 pixel: got %d, want 184", got)
	}
}
