package translate

import (
	"testing"

	"github.com/llmproxy/claude-proxy-router/internal/constant"
)

func TestRegisterAndLookup(t *testing.T) {
	defer func(saved map[constant.Format]map[constant.Format]Converter) { registry = saved }(registry)
	registry = map[constant.Format]map[constant.Format]Converter{}

	Register(constant.Claude, constant.OpenAI, Converter{
		Request: func(modelName string, rawJSON []byte, stream bool) []byte { return rawJSON },
	})

	c, ok := Lookup(constant.Claude, constant.OpenAI)
	if !ok {
		t.Fatal("expected converter to be found")
	}
	if c.Request == nil {
		t.Fatal("expected Request func to be set")
	}
}

func TestLookupMissingPairReturnsFalse(t *testing.T) {
	defer func(saved map[constant.Format]map[constant.Format]Converter) { registry = saved }(registry)
	registry = map[constant.Format]map[constant.Format]Converter{}

	if _, ok := Lookup(constant.Claude, constant.Gemini); ok {
		t.Fatal("expected no converter registered")
	}
}

func TestNeedConvert(t *testing.T) {
	defer func(saved map[constant.Format]map[constant.Format]Converter) { registry = saved }(registry)
	registry = map[constant.Format]map[constant.Format]Converter{}

	if NeedConvert(constant.Claude, constant.OpenAI) {
		t.Fatal("expected NeedConvert false before registration")
	}
	Register(constant.Claude, constant.OpenAI, Converter{})
	if !NeedConvert(constant.Claude, constant.OpenAI) {
		t.Fatal("expected NeedConvert true after registration")
	}
}

func TestRequestPassesThroughWhenNoConverterRegistered(t *testing.T) {
	defer func(saved map[constant.Format]map[constant.Format]Converter) { registry = saved }(registry)
	registry = map[constant.Format]map[constant.Format]Converter{}

	body := []byte(`{"hello":"world"}`)
	out := Request(constant.Claude, constant.Gemini, "some-model", body, false)
	if string(out) != string(body) {
		t.Fatalf("expected passthrough, got %q", out)
	}
}

func TestRequestUsesRegisteredConverter(t *testing.T) {
	defer func(saved map[constant.Format]map[constant.Format]Converter) { registry = saved }(registry)
	registry = map[constant.Format]map[constant.Format]Converter{}

	Register(constant.Claude, constant.OpenAI, Converter{
		Request: func(modelName string, rawJSON []byte, stream bool) []byte {
			return []byte(`{"converted":true,"model":"` + modelName + `"}`)
		},
	})
	out := Request(constant.Claude, constant.OpenAI, "gpt-4o", []byte(`{}`), false)
	if string(out) != `{"converted":true,"model":"gpt-4o"}` {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestResponseNonStreamPassesThroughWhenNoConverterRegistered(t *testing.T) {
	defer func(saved map[constant.Format]map[constant.Format]Converter) { registry = saved }(registry)
	registry = map[constant.Format]map[constant.Format]Converter{}

	body := []byte(`{"hello":"world"}`)
	out := ResponseNonStream(constant.Claude, constant.Gemini, body)
	if string(out) != string(body) {
		t.Fatalf("expected passthrough, got %q", out)
	}
}

func TestResponseNonStreamUsesRegisteredConverter(t *testing.T) {
	defer func(saved map[constant.Format]map[constant.Format]Converter) { registry = saved }(registry)
	registry = map[constant.Format]map[constant.Format]Converter{}

	Register(constant.Claude, constant.OpenAI, Converter{
		NonStream: func(rawJSON []byte) []byte { return []byte(`{"converted":true}`) },
	})
	out := ResponseNonStream(constant.Claude, constant.OpenAI, []byte(`{}`))
	if string(out) != `{"converted":true}` {
		t.Fatalf("unexpected output: %q", out)
	}
}
