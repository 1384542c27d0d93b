package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"golang.org/x/text/language"
)

//go:embed schema.cue
var schemaSource string

// FieldError is one configuration value rejected by validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError lists every rejected field.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Validate checks c against the embedded schema. It returns a
// *ValidationError listing all problems, or nil.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	data := ctx.Encode(c)
	if err := data.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	var fields []FieldError
	if err := schema.Unify(data).Validate(cue.Concrete(true)); err != nil {
		fields = append(fields, fieldErrors(err)...)
	}
	if _, err := language.Parse(c.Display.Locale); err != nil && c.Display.Locale != "" {
		fields = append(fields, FieldError{Field: "display.locale", Message: err.Error()})
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// fieldErrors flattens a CUE error list into one entry per path.
func fieldErrors(err error) []FieldError {
	var out []FieldError
	seen := map[string]bool{}
	for _, e := range cueerrors.Errors(err) {
		path := strings.Join(e.Path(), ".")
		if seen[path] {
			continue
		}
		seen[path] = true
		format, args := e.Msg()
		out = append(out, FieldError{Field: path, Message: fmt.Sprintf(format, args...)})
	}
	return out
}
