// Package policy provides step generators for the synthetic producer
package policy

import (
	"github.com/cartridge/replay/internal/spec"
)

// Policy produces step records for a row of the replay buffer
type Policy interface {
	// Step returns the next record for row, shaped by the policy's spec
	Step(row int) (spec.Record, error)
}

// Batch stacks one step per row into an AddBatch payload.
func Batch(p Policy, rows int) (spec.Record, error) {
	steps := make([]spec.Record, rows)
	for r := range steps {
		step, err := p.Step(r)
		if err != nil {
			return nil, err
		}
		steps[r] = step
	}
	return spec.StackRecords(steps)
}
