// Package validation checks find-printer request documents before they reach
// the ranking engine. Structure is checked with JSON Schema: a fixed schema for
// the document and a schema built per request that requires every printer to
// carry a numeric value for each criterion title.
package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/onnwee/spk/internal/printer"
	"github.com/onnwee/spk/internal/validate"
)

//go:embed schemas/find_printer.schema.json
var findPrinterSchemaJSON string

// defaultPrinter formats schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// requestSchema is the compiled schema for the request document.
var requestSchema = mustCompileSchema(findPrinterSchemaJSON, "find_printer.schema.json")

// Error reports why a request document was rejected.
// Details holds one entry per problem, prefixed with its JSON pointer location.
type Error struct {
	Message string
	Details []string
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Details, "; "))
}

func newError(details []string) *Error {
	return &Error{Message: "request validation failed", Details: details}
}

// IsValidationError reports whether err is, or wraps, an *Error.
func IsValidationError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	sch, err := compileSchema(raw, name)
	if err != nil {
		panic(err)
	}
	return sch
}

func compileSchema(raw string, name string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("failed to add %s resource: %w", name, err)
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", name, err)
	}
	return sch, nil
}

// ParseFindRequest validates a JSON request document and decodes it.
// Numbers in printer records are kept as json.Number. Criterion titles are
// returned trimmed and printer keys must match the trimmed title exactly.
// Validation failures are returned as *Error.
func ParseFindRequest(data []byte) (*printer.FindRequest, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, newError([]string{fmt.Sprintf("invalid JSON: %v", err)})
	}
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var req printer.FindRequest
	if err := dec.Decode(&req); err != nil {
		return nil, newError([]string{fmt.Sprintf("invalid request: %v", err)})
	}
	for i := range req.Headers {
		req.Headers[i].Title = strings.TrimSpace(req.Headers[i].Title)
	}
	return &req, nil
}

// ValidateDocument validates a decoded request document (as produced by
// jsonschema.UnmarshalJSON or an equivalent generic decode).
// Checks stop at the first stage that fails: document structure, then
// criterion titles and weights, then printer records.
func ValidateDocument(doc any) error {
	if errs := validateAgainstSchema(requestSchema, doc); len(errs) > 0 {
		return newError(errs)
	}

	root := doc.(map[string]any)
	headers := root["headers"].([]any)

	titles, errs := checkHeaders(headers)
	if len(errs) > 0 {
		return newError(errs)
	}

	sch, err := compileSchema(printerSchema(titles), "printers.schema.json")
	if err != nil {
		return fmt.Errorf("failed to build printer schema: %w", err)
	}
	if errs := validateAgainstSchema(sch, doc); len(errs) > 0 {
		return newError(errs)
	}
	if errs := checkPrinterRanges(root["printers"].([]any), titles); len(errs) > 0 {
		return newError(errs)
	}
	return nil
}

// checkPrinterRanges rejects id and criterion values that do not fit a finite float64.
func checkPrinterRanges(printers []any, titles []string) []string {
	keys := []string{"id"}
	for _, t := range titles {
		if t != "id" {
			keys = append(keys, t)
		}
	}

	var errs []string
	for i, p := range printers {
		rec := p.(map[string]any)
		for _, k := range keys {
			if _, ok := numberValue(rec[k]); !ok {
				errs = append(errs, fmt.Sprintf("/printers/%d/%s: number out of range", i, pointerEscaper.Replace(k)))
			}
		}
	}
	return errs
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && !math.IsInf(f, 0)
	case float64:
		return n, !math.IsInf(n, 0) && !math.IsNaN(n)
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		*errs = append(*errs, fmt.Sprintf("%s: %s", location(ve.InstanceLocation), ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func location(tokens []string) string {
	if len(tokens) == 0 {
		return "/"
	}
	escaped := make([]string, len(tokens))
	for i, t := range tokens {
		escaped[i] = pointerEscaper.Replace(t)
	}
	return "/" + strings.Join(escaped, "/")
}
