package validate

import "testing"

func hasCode(errs []FieldError, field string, code Code) bool {
	for _, e := range errs {
		if e.Field == field && e.Code == code {
			return true
		}
	}
	return false
}

func TestClaudeRequestValid(t *testing.T) {
	body := []byte(`{"model":"claude-3","messages":[{"role":"user","content":"hi"}],"max_tokens":100}`)
	if errs := ClaudeRequest(body); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestClaudeRequestMissingModelAndMessages(t *testing.T) {
	errs := ClaudeRequest([]byte(`{}`))
	if !hasCode(errs, "model", Required) {
		t.Error("expected a required error for model")
	}
	if !hasCode(errs, "messages", Required) {
		t.Error("expected a required error for messages")
	}
}

func TestClaudeRequestFirstMessageMustBeUser(t *testing.T) {
	body := []byte(`{"model":"claude-3","messages":[{"role":"assistant","content":"hi"}]}`)
	errs := ClaudeRequest(body)
	if !hasCode(errs, "messages", ConstraintViolation) {
		t.Fatalf("expected a constraint violation, got %v", errs)
	}
}

func TestClaudeRequestRolesMustAlternate(t *testing.T) {
	body := []byte(`{"model":"claude-3","messages":[{"role":"user","content":"a"},{"role":"user","content":"b"}]}`)
	errs := ClaudeRequest(body)
	if !hasCode(errs, "messages", ConstraintViolation) {
		t.Fatalf("expected a constraint violation for non-alternating roles, got %v", errs)
	}
}

func TestClaudeRequestOutOfRangeFields(t *testing.T) {
	body := []byte(`{"model":"claude-3","messages":[{"role":"user","content":"hi"}],"max_tokens":99999,"temperature":5,"top_p":5,"top_k":-1}`)
	errs := ClaudeRequest(body)
	for _, field := range []string{"max_tokens", "temperature", "top_p", "top_k"} {
		if !hasCode(errs, field, OutOfRange) {
			t.Errorf("expected out_of_range for %s, got %v", field, errs)
		}
	}
}

func TestOpenAIRequestValid(t *testing.T) {
	body := []byte(`{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}]}`)
	if errs := OpenAIRequest(body); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestOpenAIRequestInvalidRole(t *testing.T) {
	body := []byte(`{"model":"gpt-4o","messages":[{"role":"bogus","content":"hi"}]}`)
	errs := OpenAIRequest(body)
	if !hasCode(errs, "messages.role", InvalidFormat) {
		t.Fatalf("expected invalid_format for role, got %v", errs)
	}
}

func TestOpenAIRequestToolRoleSkipsContentCheck(t *testing.T) {
	body := []byte(`{"model":"gpt-4o","messages":[{"role":"tool","tool_call_id":"x"}]}`)
	errs := OpenAIRequest(body)
	if hasCode(errs, "messages.content", Required) {
		t.Fatalf("did not expect a content requirement for tool role, got %v", errs)
	}
}

func TestOpenAIRequestOutOfRangeFields(t *testing.T) {
	body := []byte(`{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}],"n":0,"frequency_penalty":3,"presence_penalty":-3}`)
	errs := OpenAIRequest(body)
	for _, field := range []string{"n", "frequency_penalty", "presence_penalty"} {
		if !hasCode(errs, field, OutOfRange) {
			t.Errorf("expected out_of_range for %s, got %v", field, errs)
		}
	}
}
