package compiler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lhaig/sdogams/internal/gams"
	"github.com/lhaig/sdogams/internal/tableau"
)

// Interactive is the lookup type that asks for every lookup's formulation.
const Interactive = "interactive"

// Defaults used when neither the options nor the model file choose.
const (
	DefaultScheme     = "rk2"
	DefaultLookupType = "spline"
)

// LookupTypes lists the accepted lookup types.
func LookupTypes() []string {
	return []string{"spline", "sos2", Interactive}
}

// getScheme resolves the discretization scheme. An explicit option wins over
// the model file.
func getScheme(option, fromModel string) (tableau.Name, error) {
	name := firstNonEmpty(option, fromModel, DefaultScheme)
	scheme, err := tableau.Parse(name)
	if err != nil {
		return 0, fmt.Errorf("unknown discretization method '%s' (available: %s)",
			name, strings.Join(tableau.Names(), ", "))
	}
	return scheme, nil
}

// getFormulation resolves the initial formulation of every lookup and
// whether the caller must be asked per lookup.
func getFormulation(option, fromModel string) (gams.Formulation, bool, error) {
	name := strings.ToLower(firstNonEmpty(option, fromModel, DefaultLookupType))
	if name == Interactive {
		return gams.Spline, true, nil
	}
	f, err := gams.ParseFormulation(name)
	if err != nil {
		return 0, false, fmt.Errorf("unknown lookup type '%s' (available: %s)",
			name, strings.Join(LookupTypes(), ", "))
	}
	return f, false, nil
}

// OutputPath returns the GAMS file written next to a model file.
func OutputPath(modelPath string) string {
	return strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".gms"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
