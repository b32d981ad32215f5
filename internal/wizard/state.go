// ==============================================================================
// WIZARD STATE PROJECTION - internal/wizard/state.go
// ==============================================================================
// Navigation query parameters are the single source of truth for wizard
// state. State is recomputed from parameters on every change; transitions
// produce new parameter sets instead of writing state directly.
//
// Canonical parameters: step, country (full catalog name), mode. The legacy
// `sn` ISO code is accepted on ingress and translated through the catalog;
// invitation links propagate `sn` alongside oc/os.
// ==============================================================================

package wizard

import (
	"net/url"
	"strconv"

	"onboarding/internal/catalog"
	"onboarding/internal/domain"
)

const (
	paramStep    = "step"
	paramCountry = "country"
	paramMode    = "mode"
	paramSN      = "sn"
	paramOC      = "oc"
	paramOS      = "os"
)

// ParseState projects navigation parameters onto a WizardState. It is a
// pure function: same parameters, same state.
func ParseState(params url.Values) domain.WizardState {
	state := domain.WizardState{Step: 1, Mode: domain.ModeAssisted}

	if v := params.Get(paramStep); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			state.Step = n
		}
	}

	if params.Get(paramMode) == string(domain.ModeManual) {
		state.Mode = domain.ModeManual
	}

	country := params.Get(paramCountry)
	if country == "" {
		// Invitation links carry the ISO code instead of the name.
		country = catalog.CountryForCode(params.Get(paramSN))
	} else if name := catalog.CountryForCode(country); name != "" {
		// Tolerate links that put the ISO code under country.
		country = name
	}
	state.Country = country

	return state
}

// Navigation is the outcome of a wizard transition: the new parameter set
// and whether history should be replaced rather than pushed.
type Navigation struct {
	Params  url.Values
	Replace bool
}

// cloneParams copies a parameter set so transitions never mutate the input.
func cloneParams(params url.Values) url.Values {
	out := make(url.Values, len(params))
	for k, vs := range params {
		cp := make([]string, len(vs))
		copy(cp, vs)
		out[k] = cp
	}
	return out
}
