package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticsCollect(t *testing.T) {
	var d Diagnostics

	assert.True(t, d.IsValid())
	require.NoError(t, d.Error())

	d.AddWarning("split_on_tax_unit", "split ignored", "input rent", "split")
	d.AddInfo("placeholder", "constant output", "output frate", "")
	assert.True(t, d.IsValid())

	d.AddError("unknown_flat_field", `unknown flat field "pwage"`, "input wages", "fields", "pwages")
	assert.False(t, d.IsValid())
	require.Len(t, d.Errors, 1)
	assert.Equal(t, SeverityError, d.Errors[0].Severity)
	assert.Equal(t, []string{"unknown_flat_field", "split_on_tax_unit", "placeholder"}, codes(d.All()))

	err := d.Error()
	require.Error(t, err)
	assert.Equal(t,
		`[input wages] fields: [unknown_flat_field] unknown flat field "pwage" (did you mean pwages?)`,
		err.Error())
}

func codes(diags []Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}

	return out
}

func TestDiagnosticString(t *testing.T) {
	tests := []struct {
		name string
		diag Diagnostic
		want string
	}{
		{name: "message only", diag: Diagnostic{Message: "catalog file is nil"}, want: "catalog file is nil"},
		{
			name: "entry without path",
			diag: Diagnostic{Code: "no_levels", Message: "never produced", Entry: "output v30"},
			want: "[output v30]: [no_levels] never produced",
		},
		{
			name: "path with suggestions",
			diag: Diagnostic{Code: "unknown_state", Message: `unknown state "pz"`, Entry: "output v32", Path: "special_cases.pz", Suggestions: []string{"pa", "az"}},
			want: `[output v32] special_cases.pz: [unknown_state] unknown state "pz" (did you mean pa, az?)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.diag.String())
		})
	}

	var d Diagnostics

	d.AddError("a", "first", "", "")
	d.AddError("b", "second", "", "")
	assert.Equal(t, "[a] first; [b] second", d.Error().Error())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "unknown", Severity(9).String())
}
