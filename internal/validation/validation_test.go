package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRequest = `{
  "headers": [
    {"title": "speed", "type": "benefit", "weight": 0.5},
    {"title": " cost ", "type": "cost", "weight": 0.5}
  ],
  "printers": [
    {"id": 1, "speed": 10, "cost": 5.50, "queue": 2, "name": "lab"},
    {"id": 2, "speed": 5, "cost": 2, "queue": 0}
  ]
}`

func requireValidationError(t *testing.T, err error) *Error {
	t.Helper()
	require.Error(t, err)
	var ve *Error
	require.True(t, errors.As(err, &ve), "expected *Error, got %T: %v", err, err)
	require.NotEmpty(t, ve.Details)
	return ve
}

// hasDetail reports whether any detail starts with loc and contains every fragment.
func hasDetail(details []string, loc string, fragments ...string) bool {
	for _, d := range details {
		if !strings.HasPrefix(d, loc+":") {
			continue
		}
		ok := true
		for _, f := range fragments {
			if !strings.Contains(d, f) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func TestParseFindRequest_Valid(t *testing.T) {
	req, err := ParseFindRequest([]byte(validRequest))
	require.NoError(t, err)

	require.Len(t, req.Headers, 2)
	assert.Equal(t, "speed", req.Headers[0].Title)
	assert.Equal(t, "cost", req.Headers[1].Title, "titles are trimmed")
	assert.Equal(t, 0.5, req.Headers[1].Weight)

	require.Len(t, req.Printers, 2)
	assert.Equal(t, int64(1), req.Printers[0].ID())
	assert.Equal(t, json.Number("5.50"), req.Printers[0]["cost"], "numbers keep their text")
	assert.Equal(t, "lab", req.Printers[0]["name"])

	criteria, err := req.Criteria()
	require.NoError(t, err)
	assert.Len(t, criteria, 2)
}

func TestParseFindRequest_NoPrinters(t *testing.T) {
	req, err := ParseFindRequest([]byte(`{"headers": [{"title": "speed", "type": "benefit", "weight": 1}], "printers": []}`))
	require.NoError(t, err)
	assert.Empty(t, req.Printers)
}

func TestParseFindRequest_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		loc       string
		fragments []string
	}{
		{
			name: "malformed JSON",
			body: `{"headers": [`,
			loc:  "invalid JSON",
		},
		{
			name:      "missing printers",
			body:      `{"headers": [{"title": "speed", "type": "benefit", "weight": 1}]}`,
			loc:       "/",
			fragments: []string{"printers"},
		},
		{
			name: "empty headers",
			body: `{"headers": [], "printers": []}`,
			loc:  "/headers",
		},
		{
			name: "unknown criterion type",
			body: `{"headers": [{"title": "speed", "type": "fastest", "weight": 1}], "printers": []}`,
			loc:  "/headers/0/type",
		},
		{
			name: "type is case sensitive",
			body: `{"headers": [{"title": "speed", "type": "Benefit", "weight": 1}], "printers": []}`,
			loc:  "/headers/0/type",
		},
		{
			name: "negative weight",
			body: `{"headers": [{"title": "speed", "type": "benefit", "weight": -1}], "printers": []}`,
			loc:  "/headers/0/weight",
		},
		{
			name:      "unknown header key",
			body:      `{"headers": [{"title": "speed", "type": "benefit", "weight": 1, "unit": "ppm"}], "printers": []}`,
			loc:       "/headers/0",
			fragments: []string{"unit"},
		},
		{
			name: "empty title",
			body: `{"headers": [{"title": "", "type": "benefit", "weight": 1}], "printers": []}`,
			loc:  "/headers/0/title",
		},
		{
			name: "blank title",
			body: `{"headers": [{"title": "   ", "type": "benefit", "weight": 1}], "printers": []}`,
			loc:  "/headers/0/title",
		},
		{
			name:      "title too long",
			body:      fmt.Sprintf(`{"headers": [{"title": %q, "type": "benefit", "weight": 1}], "printers": []}`, strings.Repeat("t", 101)),
			loc:       "/headers/0/title",
			fragments: []string{"too long"},
		},
		{
			name:      "reserved title",
			body:      `{"headers": [{"title": "score", "type": "benefit", "weight": 1}], "printers": []}`,
			loc:       "/headers/0/title",
			fragments: []string{"reserved"},
		},
		{
			name:      "duplicate title after trimming",
			body:      `{"headers": [{"title": "speed", "type": "benefit", "weight": 1}, {"title": "speed ", "type": "cost", "weight": 1}], "printers": []}`,
			loc:       "/headers/1/title",
			fragments: []string{"duplicate"},
		},
		{
			name:      "all weights zero",
			body:      `{"headers": [{"title": "speed", "type": "benefit", "weight": 0}], "printers": []}`,
			loc:       "/headers",
			fragments: []string{"greater than 0"},
		},
		{
			name:      "printer missing criterion value",
			body:      `{"headers": [{"title": "speed", "type": "benefit", "weight": 1}], "printers": [{"id": 1, "speed": 2}, {"id": 2}]}`,
			loc:       "/printers/1",
			fragments: []string{"speed"},
		},
		{
			name: "printer criterion value not a number",
			body: `{"headers": [{"title": "speed", "type": "benefit", "weight": 1}], "printers": [{"id": 1, "speed": "fast"}]}`,
			loc:  "/printers/0/speed",
		},
		{
			name:      "printer missing id",
			body:      `{"headers": [{"title": "speed", "type": "benefit", "weight": 1}], "printers": [{"speed": 2}]}`,
			loc:       "/printers/0",
			fragments: []string{"id"},
		},
		{
			name: "printer id below one",
			body: `{"headers": [{"title": "speed", "type": "benefit", "weight": 1}], "printers": [{"id": 0, "speed": 2}]}`,
			loc:  "/printers/0/id",
		},
		{
			name:      "criterion value overflows float64",
			body:      `{"headers": [{"title": "x", "type": "benefit", "weight": 1}], "printers": [{"id": 1, "x": 1e400}]}`,
			loc:       "/printers/0/x",
			fragments: []string{"number out of range"},
		},
		{
			name:      "negative criterion value overflows float64",
			body:      `{"headers": [{"title": "x", "type": "cost", "weight": 1}], "printers": [{"id": 1, "x": 1}, {"id": 2, "x": -1e400}]}`,
			loc:       "/printers/1/x",
			fragments: []string{"number out of range"},
		},
		{
			name:      "printer id overflows float64",
			body:      `{"headers": [{"title": "x", "type": "benefit", "weight": 1}], "printers": [{"id": 1e400, "x": 1}]}`,
			loc:       "/printers/0/id",
			fragments: []string{"number out of range"},
		},
		{
			name:      "weight overflows float64",
			body:      `{"headers": [{"title": "x", "type": "benefit", "weight": 1e400}], "printers": []}`,
			loc:       "/headers/0/weight",
			fragments: []string{"number out of range"},
		},
		{
			name:      "printer key must match the trimmed title",
			body:      `{"headers": [{"title": " cost ", "type": "cost", "weight": 1}], "printers": [{"id": 1, " cost ": 2}]}`,
			loc:       "/printers/0",
			fragments: []string{"cost"},
		},
		{
			name: "printer is not an object",
			body: `{"headers": [{"title": "speed", "type": "benefit", "weight": 1}], "printers": [3]}`,
			loc:  "/printers/0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFindRequest([]byte(tt.body))
			ve := requireValidationError(t, err)
			assert.True(t, hasDetail(ve.Details, tt.loc, tt.fragments...),
				"expected detail at %s containing %v, got %v", tt.loc, tt.fragments, ve.Details)
			assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", err)))
		})
	}
}

func TestValidateDocument_CollectsAllPrinterErrors(t *testing.T) {
	body := `{
	  "headers": [
	    {"title": "speed", "type": "benefit", "weight": 1},
	    {"title": "cost", "type": "cost", "weight": 1}
	  ],
	  "printers": [{"id": 1}, {"id": 2, "speed": 1, "cost": "x"}]
	}`
	_, err := ParseFindRequest([]byte(body))
	ve := requireValidationError(t, err)
	assert.True(t, hasDetail(ve.Details, "/printers/0"), "details: %v", ve.Details)
	assert.True(t, hasDetail(ve.Details, "/printers/1/cost"), "details: %v", ve.Details)
}

func TestError_Error(t *testing.T) {
	assert.Equal(t, "request validation failed", (&Error{Message: "request validation failed"}).Error())
	err := newError([]string{"/a: bad", "/b: worse"})
	assert.Equal(t, "request validation failed: /a: bad; /b: worse", err.Error())
	assert.False(t, IsValidationError(errors.New("plain")))
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "/", location(nil))
	assert.Equal(t, "/printers/0/id", location([]string{"printers", "0", "id"}))
	assert.Equal(t, "/printers/0/a~1b~0c", location([]string{"printers", "0", "a/b~c"}))
}

func TestPrinterSchema_RequiresEveryTitle(t *testing.T) {
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(printerSchema([]string{"speed", "id", "cost"})), &schema))

	items := schema["properties"].(map[string]any)["printers"].(map[string]any)["items"].(map[string]any)
	assert.Equal(t, []any{"id", "speed", "cost"}, items["required"])
	assert.Contains(t, items["properties"], "speed")
	assert.Contains(t, items["properties"], "cost")
}
