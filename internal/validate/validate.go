// Package validate runs the pure field-scoped checks on Claude and OpenAI
// request shapes (§4.5), reading the raw JSON with gjson the same way the
// converters do rather than unmarshaling into a struct.
package validate

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Code is the closed set of validation error codes (§4.5).
type Code string

const (
	Required              Code = "required"
	OutOfRange            Code = "out_of_range"
	InvalidFormat         Code = "invalid_format"
	TypeError             Code = "type_error"
	LengthError           Code = "length_error"
	ConstraintViolation   Code = "constraint_violation"
)

// FieldError is one field-scoped validation failure.
type FieldError struct {
	Field   string
	Message string
	Code    Code
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func required(field string) FieldError {
	return FieldError{Field: field, Message: fmt.Sprintf("Field '%s' is required", field), Code: Required}
}

func outOfRange(field, message string) FieldError {
	return FieldError{Field: field, Message: message, Code: OutOfRange}
}

// ClaudeRequest validates a raw Claude Messages request body (§4.5).
func ClaudeRequest(rawJSON []byte) []FieldError {
	var errs []FieldError
	root := gjson.ParseBytes(rawJSON)

	if model := root.Get("model"); !model.Exists() || model.String() == "" {
		errs = append(errs, required("model"))
	}

	messages := root.Get("messages")
	if !messages.Exists() || !messages.IsArray() || len(messages.Array()) == 0 {
		errs = append(errs, required("messages"))
	} else {
		arr := messages.Array()
		if arr[0].Get("role").String() != "user" {
			errs = append(errs, FieldError{Field: "messages", Message: "first message must have role 'user'", Code: ConstraintViolation})
		}
		prevRole := ""
		for i, m := range arr {
			role := m.Get("role").String()
			if i > 0 && role == prevRole {
				errs = append(errs, FieldError{Field: "messages", Message: "roles must alternate between user and assistant", Code: ConstraintViolation})
				break
			}
			prevRole = role
		}
	}

	if mt := root.Get("max_tokens"); mt.Exists() {
		if v := mt.Int(); v < 1 || v > 8192 {
			errs = append(errs, outOfRange("max_tokens", "max_tokens must be between 1 and 8192"))
		}
	}
	if t := root.Get("temperature"); t.Exists() {
		if v := t.Float(); v < 0 || v > 1 {
			errs = append(errs, outOfRange("temperature", "temperature must be between 0 and 1"))
		}
	}
	if tp := root.Get("top_p"); tp.Exists() {
		if v := tp.Float(); v < 0 || v > 1 {
			errs = append(errs, outOfRange("top_p", "top_p must be between 0 and 1"))
		}
	}
	if tk := root.Get("top_k"); tk.Exists() {
		if tk.Int() < 0 {
			errs = append(errs, outOfRange("top_k", "top_k must be >= 0"))
		}
	}

	return errs
}

var openAIRoles = map[string]bool{
	"system": true, "user": true, "assistant": true, "function": true, "tool": true,
}

// OpenAIRequest validates a raw OpenAI Chat Completions request body (§4.5).
func OpenAIRequest(rawJSON []byte) []FieldError {
	var errs []FieldError
	root := gjson.ParseBytes(rawJSON)

	if model := root.Get("model"); !model.Exists() || model.String() == "" {
		errs = append(errs, required("model"))
	}

	messages := root.Get("messages")
	if !messages.Exists() || !messages.IsArray() || len(messages.Array()) == 0 {
		errs = append(errs, required("messages"))
	} else {
		for _, m := range messages.Array() {
			role := m.Get("role").String()
			if !openAIRoles[role] {
				errs = append(errs, FieldError{Field: "messages.role", Message: "role must be one of system/user/assistant/function/tool", Code: InvalidFormat})
				continue
			}
			if role == "function" || role == "tool" {
				continue
			}
			content := m.Get("content")
			if !content.Exists() || content.String() == "" {
				errs = append(errs, required("messages.content"))
			}
		}
	}

	if mt := root.Get("max_tokens"); mt.Exists() && mt.Int() < 1 {
		errs = append(errs, outOfRange("max_tokens", "max_tokens must be >= 1"))
	}
	if t := root.Get("temperature"); t.Exists() {
		if v := t.Float(); v < 0 || v > 2 {
			errs = append(errs, outOfRange("temperature", "temperature must be between 0 and 2"))
		}
	}
	if tp := root.Get("top_p"); tp.Exists() {
		if v := tp.Float(); v < 0 || v > 1 {
			errs = append(errs, outOfRange("top_p", "top_p must be between 0 and 1"))
		}
	}
	if n := root.Get("n"); n.Exists() {
		if v := n.Int(); v < 1 || v > 128 {
			errs = append(errs, outOfRange("n", "n must be between 1 and 128"))
		}
	}
	if fp := root.Get("frequency_penalty"); fp.Exists() {
		if v := fp.Float(); v < -2 || v > 2 {
			errs = append(errs, outOfRange("frequency_penalty", "frequency_penalty must be between -2 and 2"))
		}
	}
	if pp := root.Get("presence_penalty"); pp.Exists() {
		if v := pp.Float(); v < -2 || v > 2 {
			errs = append(errs, outOfRange("presence_penalty", "presence_penalty must be between -2 and 2"))
		}
	}

	return errs
}
