package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind enumerates the JSON shapes an LLM response field may take.
type Kind int

const (
	String Kind = iota
	Number
	StringArray
	ObjectArray
	Object
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case StringArray:
		return "string array"
	case ObjectArray:
		return "object array"
	case Object:
		return "object"
	}
	return "unknown"
}

// Field describes one expected response field. MinItems/MaxItems apply to
// arrays (0 means unbounded); Min/Max apply to numbers when Bounded is set;
// Fields describes nested objects and object-array elements.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool
	MinItems int
	MaxItems int
	Min      float64
	Max      float64
	Bounded  bool
	Fields   []Field
}

// Schema is the required shape of a JSON-object LLM response.
type Schema struct {
	Fields []Field
}

// UnitInterval bounds a number field to [0, 1].
func UnitInterval(name string) Field {
	return Field{Name: name, Kind: Number, Min: 0, Max: 1, Bounded: true}
}

type FieldError struct {
	Path    string
	Message string
}

// ValidationError reports every field that failed, so the final error after
// retries names exactly what was invalid or missing.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fmt.Sprintf("%s: %s", fe.Path, fe.Message)
	}
	return "response shape invalid: " + strings.Join(parts, "; ")
}

// Validate checks raw against the schema and returns a *ValidationError
// describing every mismatch, or nil if the shape is acceptable.
func (s Schema) Validate(raw json.RawMessage) error {
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return &ValidationError{Errors: []FieldError{{Path: "$", Message: "not a JSON object"}}}
	}

	var errs []FieldError
	validateFields("", s.Fields, obj, &errs)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validateFields(prefix string, fields []Field, obj map[string]interface{}, errs *[]FieldError) {
	for _, f := range fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}

		value, ok := obj[f.Name]
		if !ok || value == nil {
			if !f.Optional {
				*errs = append(*errs, FieldError{Path: path, Message: "required field missing"})
			}
			continue
		}
		validateValue(path, f, value, errs)
	}
}

func validateValue(path string, f Field, value interface{}, errs *[]FieldError) {
	switch f.Kind {
	case String:
		if _, ok := value.(string); !ok {
			*errs = append(*errs, mismatch(path, f, value))
		}

	case Number:
		n, ok := value.(float64)
		if !ok {
			*errs = append(*errs, mismatch(path, f, value))
			return
		}
		if f.Bounded && (n < f.Min || n > f.Max) {
			*errs = append(*errs, FieldError{
				Path:    path,
				Message: fmt.Sprintf("expected number in [%g, %g], got %g", f.Min, f.Max, n),
			})
		}

	case StringArray:
		arr, ok := value.([]interface{})
		if !ok {
			*errs = append(*errs, mismatch(path, f, value))
			return
		}
		checkLength(path, f, len(arr), errs)
		for i, item := range arr {
			if _, ok := item.(string); !ok {
				*errs = append(*errs, FieldError{
					Path:    fmt.Sprintf("%s[%d]", path, i),
					Message: fmt.Sprintf("expected string, got %s", typeName(item)),
				})
			}
		}

	case ObjectArray:
		arr, ok := value.([]interface{})
		if !ok {
			*errs = append(*errs, mismatch(path, f, value))
			return
		}
		checkLength(path, f, len(arr), errs)
		for i, item := range arr {
			elem, ok := item.(map[string]interface{})
			if !ok {
				*errs = append(*errs, FieldError{
					Path:    fmt.Sprintf("%s[%d]", path, i),
					Message: fmt.Sprintf("expected object, got %s", typeName(item)),
				})
				continue
			}
			validateFields(fmt.Sprintf("%s[%d]", path, i), f.Fields, elem, errs)
		}

	case Object:
		elem, ok := value.(map[string]interface{})
		if !ok {
			*errs = append(*errs, mismatch(path, f, value))
			return
		}
		validateFields(path, f.Fields, elem, errs)
	}
}

func checkLength(path string, f Field, n int, errs *[]FieldError) {
	if f.MinItems > 0 && n < f.MinItems {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("expected at least %d items, got %d", f.MinItems, n),
		})
	}
	if f.MaxItems > 0 && n > f.MaxItems {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("expected at most %d items, got %d", f.MaxItems, n),
		})
	}
}

func mismatch(path string, f Field, value interface{}) FieldError {
	return FieldError{
		Path:    path,
		Message: fmt.Sprintf("expected %s, got %s", f.Kind, typeName(value)),
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "bool"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
