// Package schema validates untrusted request bodies before any provider call.
//
// Validation happens in two independent steps. ParseEnvelope checks the outer
// {tool, payload} shape and never looks inside payload. The per-tool
// validators then check payload against the tool's parameter contract and
// return a typed input. Strings are never trimmed here.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	apperrors "github.com/sweetpotato0/ai-desk/errors"
	"github.com/sweetpotato0/ai-desk/tool"
)

const invalidRequest = "Invalid request"

// ParseEnvelope parses body into a tool request.
func ParseEnvelope(body []byte) (*tool.Request, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.KindRuntime,
			fmt.Sprintf("request body is not valid JSON: %v", err), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		value, _ := decode(raw)
		return nil, apperrors.Wrap(apperrors.KindValidationOrRuntime,
			"Expected object, received "+typeName(value), apperrors.ErrInvalidInput)
	}

	var name string
	toolRaw, hasTool := fields["tool"]
	payload, hasPayload := fields["payload"]
	if !hasTool || !hasPayload || json.Unmarshal(toolRaw, &name) != nil {
		return nil, apperrors.Wrap(apperrors.KindValidationOrRuntime, invalidRequest, apperrors.ErrInvalidInput)
	}
	parsed, ok := tool.Parse(name)
	if !ok {
		return nil, apperrors.Wrap(apperrors.KindValidationOrRuntime, invalidRequest, apperrors.ErrInvalidInput)
	}

	return &tool.Request{Tool: parsed, Payload: payload}, nil
}

// Validate checks payload against the named tool and returns its typed input:
// tool.WriteInput, tool.IdeasInput or tool.FocusInput.
func Validate(name tool.Name, payload json.RawMessage) (any, error) {
	switch name {
	case tool.Write:
		return ValidateWrite(payload)
	case tool.Ideas:
		return ValidateIdeas(payload)
	case tool.Focus:
		return ValidateFocus(payload)
	default:
		return nil, apperrors.Wrap(apperrors.KindValidationOrRuntime, "Unsupported tool", apperrors.ErrInvalidInput)
	}
}

// ValidateWrite validates a write payload.
func ValidateWrite(payload json.RawMessage) (tool.WriteInput, error) {
	obj, err := validateObject(tool.Write, payload)
	if err != nil {
		return tool.WriteInput{}, err
	}
	return tool.WriteInput{
		Topic:   stringField(obj, "topic"),
		Tone:    tool.Tone(stringField(obj, "tone")),
		Length:  tool.Length(stringField(obj, "length")),
		Outline: stringsField(obj, "outline"),
	}, nil
}

// ValidateIdeas validates an ideas payload.
func ValidateIdeas(payload json.RawMessage) (tool.IdeasInput, error) {
	obj, err := validateObject(tool.Ideas, payload)
	if err != nil {
		return tool.IdeasInput{}, err
	}
	return tool.IdeasInput{
		Topic: stringField(obj, "topic"),
		Count: intField(obj, "count"),
		Tags:  stringsField(obj, "tags"),
	}, nil
}

// ValidateFocus validates a focus payload.
func ValidateFocus(payload json.RawMessage) (tool.FocusInput, error) {
	obj, err := validateObject(tool.Focus, payload)
	if err != nil {
		return tool.FocusInput{}, err
	}
	return tool.FocusInput{
		Context:            stringField(obj, "context"),
		ExistingPriorities: stringsField(obj, "existingPriorities"),
		Count:              intField(obj, "count"),
	}, nil
}

func validateObject(name tool.Name, payload json.RawMessage) (map[string]any, error) {
	def, err := tool.Lookup(name)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidationOrRuntime, "Unsupported tool", err)
	}

	value, err := decode(payload)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidationOrRuntime,
			fmt.Sprintf("payload is not valid JSON: %v", err), apperrors.ErrInvalidInput)
	}

	v := NewValidator()
	obj, ok := value.(map[string]any)
	if !ok {
		v.Add("", "Expected object, received "+typeName(value))
		return nil, v.Err()
	}

	for _, param := range def.Parameters {
		raw, present := obj[param.Name]
		if !present {
			if param.Required {
				v.Add(param.Name, "Required")
			}
			continue
		}
		check(v, param, param.Name, raw)
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return obj, nil
}

func check(v *Validator, param tool.Parameter, field string, value any) {
	switch param.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			v.Add(field, "Expected string, received "+typeName(value))
			return
		}
		if utf8.RuneCountInString(s) < param.MinLength {
			msg := param.MinLengthMessage
			if msg == "" {
				msg = fmt.Sprintf("String must contain at least %d character(s)", param.MinLength)
			}
			v.Add(field, msg)
		}
		if len(param.Enum) > 0 && !contains(param.Enum, s) {
			v.Add(field, fmt.Sprintf("Invalid enum value. Expected '%s', received '%s'",
				strings.Join(param.Enum, "' | '"), s))
		}

	case "integer":
		n, ok := value.(json.Number)
		if !ok {
			v.Add(field, "Expected number, received "+typeName(value))
			return
		}
		f, err := n.Float64()
		if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
			v.Add(field, "Expected integer, received float")
			return
		}
		if param.Range != nil {
			if f < float64(param.Range.Min) {
				v.Add(field, fmt.Sprintf("Number must be greater than or equal to %d", param.Range.Min))
			}
			if f > float64(param.Range.Max) {
				v.Add(field, fmt.Sprintf("Number must be less than or equal to %d", param.Range.Max))
			}
		}

	case "array":
		items, ok := value.([]any)
		if !ok {
			v.Add(field, "Expected array, received "+typeName(value))
			return
		}
		if param.Items == nil {
			return
		}
		for i, item := range items {
			check(v, *param.Items, fmt.Sprintf("%s[%d]", field, i), item)
		}
	}
}

func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// The field helpers below run only after validation succeeded.

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func intField(obj map[string]any, key string) int {
	n, ok := obj[key].(json.Number)
	if !ok {
		return 0
	}
	f, _ := n.Float64()
	return int(f)
}

func stringsField(obj map[string]any, key string) []string {
	items, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, _ := item.(string)
		out = append(out, s)
	}
	return out
}
