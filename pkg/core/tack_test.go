package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidityVerdict_KeepsOpaqueFields(t *testing.T) {
	in := `{"preventPlacement":true,"reasons":["LOC_TOO_CLOSE"],"distance":2}`

	var v ValidityVerdict
	require.NoError(t, json.Unmarshal([]byte(in), &v))

	assert.True(t, v.PreventPlacement)
	assert.Equal(t, []any{"LOC_TOO_CLOSE"}, v.Extra["reasons"])
	assert.Equal(t, float64(2), v.Extra["distance"])

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestValidityVerdict_MissingFlagMeansAllowed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty object", `{}`},
		{"non boolean flag", `{"preventPlacement":"yes"}`},
		{"other fields only", `{"warning":"near river"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v ValidityVerdict
			require.NoError(t, json.Unmarshal([]byte(tt.in), &v))
			assert.False(t, v.PreventPlacement)
		})
	}
}

func TestValidityVerdict_UnmarshalResetsPrevious(t *testing.T) {
	v := ValidityVerdict{PreventPlacement: true, Extra: map[string]any{"stale": 1}}
	require.NoError(t, json.Unmarshal([]byte(`{"fresh":2}`), &v))

	assert.False(t, v.PreventPlacement)
	assert.NotContains(t, v.Extra, "stale")
	assert.Contains(t, v.Extra, "fresh")
}

func TestSnapshot_EmptyPreviewEncodesAsObject(t *testing.T) {
	s := Snapshot{ValidStatus: ValidityVerdict{PreventPlacement: true}}

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"validStatus":{"preventPlacement":true},"yieldDetails":{}}`, string(out))
}

func TestInputEvent_Flags(t *testing.T) {
	ev := &InputEvent{Name: "cancel", Status: InputStatusFinish, Cancel: true}
	assert.True(t, ev.IsCancelInput())
	assert.False(t, ev.PropagationStopped())
	assert.False(t, ev.DefaultPrevented())

	ev.StopPropagation()
	ev.PreventDefault()
	assert.True(t, ev.PropagationStopped())
	assert.True(t, ev.DefaultPrevented())
}
