package fuzztests

import (
	"context"
	"errors"
	"testing"

	"irkit/internal/backend/llvm"
	"irkit/internal/backend/record"
	"irkit/internal/ir"
	"irkit/internal/materialize"
)

func addSeeds(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0, 7, 0})
	f.Add([]byte{1, 1, 0, 0, 6, 1, 7, 1})
	f.Add([]byte{2, 5, 0, 0, 1, 2, 7, 0, 4, 0, 0, 7, 1})
	f.Add([]byte{3, 6, 1, 6, 2, 6, 0})
	f.Add([]byte{1, 9, 9, 9, 6, 15})
}

func clamp(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}

// FuzzBuilderValidateMaterialize checks that validation and materialization
// agree: a module the validator accepts must materialize on both backends,
// and a rejected one must fail in the validate stage.
func FuzzBuilderValidateMaterialize(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		m := buildScript(clamp(input))
		verr := ir.Validate(m)
		_ = ir.String(m)

		for _, backend := range []materialize.Backend{record.New(), llvm.ForModule(m)} {
			_, err := materialize.Materialize(context.Background(), m, backend)
			if verr == nil {
				if err != nil {
					t.Fatalf("valid module failed to materialize: %v\n%s", err, ir.String(m))
				}
				continue
			}
			var merr *materialize.Error
			if !errors.As(err, &merr) || merr.Stage != materialize.StageValidate {
				t.Fatalf("invalid module: want validate-stage error, got %v", err)
			}
		}
	})
}
