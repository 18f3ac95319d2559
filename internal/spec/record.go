package spec

import "fmt"

// Record holds one Tensor per leaf of a Spec, in Flatten order.
type Record []Tensor

// Zero returns the default record for s: every leaf zero-valued.
func Zero(s Spec) Record {
	leaves := s.Flatten()
	rec := make(Record, len(leaves))
	for i, leaf := range leaves {
		rec[i] = Zeros(leaf.DType, leaf.Shape...)
	}
	return rec
}

// Get returns the tensor for the leaf at path.
func (r Record) Get(s Spec, path string) (Tensor, bool) {
	i, ok := s.Index(path)
	if !ok || i >= len(r) {
		return Tensor{}, false
	}
	return r[i], true
}

// Index slices every leaf of r along its leading axis.
func (r Record) Index(i int) Record {
	out := make(Record, len(r))
	for l, t := range r {
		out[l] = t.Index(i)
	}
	return out
}

// Equal reports whether r and other hold identical tensors.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if !r[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// StackRecords stacks records leaf by leaf along a new leading axis.
func StackRecords(records []Record) (Record, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: nothing to stack", ErrSpecMismatch)
	}
	out := make(Record, len(records[0]))
	column := make([]Tensor, len(records))
	for l := range out {
		for i, rec := range records {
			if len(rec) != len(out) {
				return nil, fmt.Errorf("%w: record %d has %d leaves, want %d", ErrSpecMismatch, i, len(rec), len(out))
			}
			column[i] = rec[l]
		}
		stacked, err := Stack(column)
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", l, err)
		}
		out[l] = stacked
	}
	return out, nil
}

// CheckRecord verifies that rec conforms to s with the given leading dims
// prepended to every leaf shape. Failures wrap ErrSpecMismatch.
func CheckRecord(s Spec, rec Record, leading ...int) error {
	leaves := s.Flatten()
	if len(rec) != len(leaves) {
		return fmt.Errorf("%w: got %d leaves, want %d", ErrSpecMismatch, len(rec), len(leaves))
	}
	for i, leaf := range leaves {
		t := rec[i]
		if t.DType != leaf.DType {
			return fmt.Errorf("%w: leaf %q has dtype %s, want %s", ErrSpecMismatch, leaf.Name, t.DType, leaf.DType)
		}
		want := append(cloneShape(leading), leaf.Shape...)
		if !equalShape(t.Shape, want) {
			return fmt.Errorf("%w: leaf %q has shape %v, want %v", ErrSpecMismatch, leaf.Name, t.Shape, want)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("leaf %q: %w", leaf.Name, err)
		}
	}
	return nil
}
