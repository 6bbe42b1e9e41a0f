package controller

import (
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/formula"
	"github.com/matzehuels/riglink/pkg/params"
	"github.com/matzehuels/riglink/pkg/scene"
)

// Naming selects how a kind acquires its controller.
type Naming int

const (
	// NamingUnique creates a fresh controller with the next free name.
	NamingUnique Naming = iota

	// NamingShared reuses the controller named exactly like the prefix,
	// creating it on first use.
	NamingShared
)

// Kind describes a controller flavour: its parameters, how it is named,
// and which formulas it drives on its consumers.
type Kind struct {
	Name     string
	Schema   params.Schema
	Label    int
	Naming   Naming
	Formulas []formula.Kind

	DefaultPolicy params.Policy
	DefaultGuard  bool
}

// Built-in kinds.
var (
	Circular = Kind{
		Name:          "circular",
		Schema:        params.CircularSchema,
		Label:         9,
		Naming:        NamingUnique,
		Formulas:      []formula.Kind{formula.KindCircularPosition, formula.KindCircularScale},
		DefaultPolicy: params.PolicyPreserveIfCustomized,
	}

	Grid = Kind{
		Name:          "grid",
		Schema:        params.GridSchema,
		Label:         10,
		Naming:        NamingShared,
		Formulas:      []formula.Kind{formula.KindGridScale, formula.KindGridZOffset},
		DefaultPolicy: params.PolicyPreserveIfCustomized,
	}

	YDriven = Kind{
		Name:          "ydriven",
		Schema:        params.YDrivenSchema,
		Label:         10,
		Naming:        NamingShared,
		Formulas:      []formula.Kind{formula.KindYDrivenScale},
		DefaultPolicy: params.PolicyOverwrite,
		DefaultGuard:  true,
	}
)

var builtin = []Kind{Circular, Grid, YDriven}

// Supports reports whether l carries every parameter of the kind's schema.
// A shared controller may carry the parameters of several kinds.
func (k Kind) Supports(l *scene.Layer) bool {
	for _, name := range k.Schema.Names() {
		if _, ok := l.Effect(name); !ok {
			return false
		}
	}
	return true
}

// Kinds returns the built-in kinds.
func Kinds() []Kind {
	out := make([]Kind, len(builtin))
	copy(out, builtin)
	return out
}

// KindNames returns the names of the built-in kinds.
func KindNames() []string {
	names := make([]string, len(builtin))
	for i, k := range builtin {
		names[i] = k.Name
	}
	return names
}

// LookupKind returns the built-in kind with the given name.
func LookupKind(name string) (Kind, error) {
	for _, k := range builtin {
		if k.Name == name {
			return k, nil
		}
	}
	return Kind{}, errors.New(errors.ErrCodeInvalidKind, "unknown controller kind %q (want one of %v)", name, KindNames())
}
