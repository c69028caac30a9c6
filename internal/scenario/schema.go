package scenario

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// SchemaError carries the individual CUE validation failures for one
// scenario document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0]
	}
	return fmt.Sprintf("%d schema violations: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// ValidateSchema unifies a decoded scenario document with the embedded
// CUE schema. Returns a SchemaError listing every violation.
func ValidateSchema(doc map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if !def.Exists() {
		return fmt.Errorf("schema missing #Scenario definition")
	}

	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encoding scenario document: %w", err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var problems []string
		for _, e := range cueerrors.Errors(err) {
			problems = append(problems, formatSchemaProblem(e))
		}
		return &SchemaError{Problems: problems}
	}
	return nil
}

func formatSchemaProblem(e cueerrors.Error) string {
	msg := e.Error()
	if path := cueerrors.Path(e); len(path) > 0 {
		return fmt.Sprintf("%s: %s", strings.Join(path, "."), msg)
	}
	return msg
}
