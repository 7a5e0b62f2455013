package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const totalMatchesSchema = `{
	"type": "object",
	"required": ["total_matches"],
	"properties": {
		"total_matches": {"type": "integer", "minimum": 0}
	}
}`

func TestSchema_ValidateBytes(t *testing.T) {
	schema := MustCompile("company-response", totalMatchesSchema)

	tests := []struct {
		name      string
		body      string
		wantValid bool
		wantField string
	}{
		{name: "valid", body: `{"total_matches": 5}`, wantValid: true},
		{name: "zero is valid", body: `{"total_matches": 0, "message": "ok"}`, wantValid: true},
		{name: "missing field", body: `{"message": "ok"}`, wantValid: false, wantField: "(root)"},
		{name: "wrong type", body: `{"total_matches": "five"}`, wantValid: false, wantField: "total_matches"},
		{name: "negative", body: `{"total_matches": -1}`, wantValid: false, wantField: "total_matches"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.ValidateBytes([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			if !tt.wantValid {
				assert.True(t, result.HasErrors(tt.wantField), "errors: %v", result.GetErrorMessages())
				assert.NotEmpty(t, result.FirstMessage())
			}
		})
	}
}

func TestSchema_ValidateBytes_NotJSON(t *testing.T) {
	schema := MustCompile("company-response", totalMatchesSchema)

	_, err := schema.ValidateBytes([]byte("<html>oops</html>"))
	assert.Error(t, err)
}

func TestSchema_ValidateValue(t *testing.T) {
	schema := MustCompile("company-response", totalMatchesSchema)

	result, err := schema.ValidateValue(map[string]interface{}{"total_matches": 3})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.FirstMessage())
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)
	assert.Error(t, err)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("hr@acme.io"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail(""))
}
