package wizard

import (
	"net/url"
	"testing"

	"onboarding/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestParseStateDefaults(t *testing.T) {
	state := ParseState(url.Values{})

	assert.Equal(t, 1, state.Step)
	assert.Equal(t, domain.ModeAssisted, state.Mode)
	assert.Equal(t, "", state.Country)
}

func TestParseStateFromParams(t *testing.T) {
	params := url.Values{}
	params.Set("step", "2")
	params.Set("country", "Colombia")
	params.Set("mode", "manual")

	state := ParseState(params)
	assert.Equal(t, 2, state.Step)
	assert.Equal(t, "Colombia", state.Country)
	assert.Equal(t, domain.ModeManual, state.Mode)
}

func TestParseStateLegacyCountryCode(t *testing.T) {
	params := url.Values{}
	params.Set("sn", "co")

	state := ParseState(params)
	assert.Equal(t, "Colombia", state.Country)
}

func TestParseStateCodeUnderCountryParam(t *testing.T) {
	params := url.Values{}
	params.Set("country", "co")

	state := ParseState(params)
	assert.Equal(t, "Colombia", state.Country)
}

func TestParseStateCountryParamWinsOverCode(t *testing.T) {
	params := url.Values{}
	params.Set("country", "México")
	params.Set("sn", "co")

	assert.Equal(t, "México", ParseState(params).Country)
}

func TestParseStateInvalidStep(t *testing.T) {
	for _, bad := range []string{"0", "-3", "x", ""} {
		params := url.Values{}
		params.Set("step", bad)
		assert.Equal(t, 1, ParseState(params).Step, "step %q", bad)
	}
}

func TestParseStateIsPure(t *testing.T) {
	params := url.Values{}
	params.Set("step", "3")
	params.Set("country", "España")

	first := ParseState(params)
	second := ParseState(params)
	assert.Equal(t, first, second)
}
