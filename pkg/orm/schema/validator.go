package schema

import (
	"fmt"

	strutil "github.com/conduit-lang/manifold/internal/util/strings"
)

// DefinitionValidator checks a Definition's own fields before they are merged
// with included field sets. Cross-entity checks live in Registry.ValidateRelations.
type DefinitionValidator struct {
	problems []string
}

// NewDefinitionValidator creates a new definition validator
func NewDefinitionValidator() *DefinitionValidator {
	return &DefinitionValidator{}
}

// Validate returns one message per problem found in def, or nil
func (v *DefinitionValidator) Validate(def *Definition) []string {
	v.problems = nil

	seen := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		if f == nil {
			v.addf("nil field declaration")
			continue
		}
		if seen[f.Name] {
			v.addf("field %q is declared twice", f.Name)
		}
		seen[f.Name] = true
		v.validateField(f)
	}

	for i, inc := range def.Includes {
		if inc == nil {
			v.addf("include #%d is nil", i+1)
			continue
		}
		if !inc.Abstract {
			v.addf("cannot include concrete entity %s; only abstract field sets can be included", inc.Key())
		}
	}

	return v.problems
}

func (v *DefinitionValidator) validateField(f *Field) {
	if !strutil.IsIdentifier(f.Name) {
		v.addf("field name %q is not a valid identifier", f.Name)
	}

	if f.IsRelation() {
		if f.Target == "" {
			v.addf("relation field %q has no target", f.Name)
		}
		if f.PrimaryKey && f.Kind != KindOneToOne {
			v.addf("%s field %q cannot be a primary key", f.Kind, f.Name)
		}
		if !f.Kind.HasColumn() && f.SourceName != "" {
			v.addf("%s field %q has no column to rename", f.Kind, f.Name)
		}
		return
	}

	if f.Target != "" {
		v.addf("scalar field %q cannot have a relation target", f.Name)
	}
	if f.PrimaryKey && f.Nullable {
		v.addf("primary key %q cannot be nullable", f.Name)
	}
	if f.MaxLength < 0 {
		v.addf("field %q has negative max length %d", f.Name, f.MaxLength)
	}
}

func (v *DefinitionValidator) addf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}
