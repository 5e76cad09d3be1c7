package llm

import (
	"context"
	"errors"
	"testing"
)

// fakeCompleter replays a canned envelope or error.
type fakeCompleter struct {
	text string
	err  error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, params SamplingParams) (*Envelope, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Envelope{Text: f.text, PromptTokens: 100, CompletionTokens: 20}, nil
}

func newTestInvoker(c Completer) *Invoker {
	return NewInvoker(c, DefaultSamplingParams("test-model"))
}

func TestInvokeParsesObject(t *testing.T) {
	in := newTestInvoker(&fakeCompleter{text: `{"invoice_number": "98765", "amount": "$720.50"}`})

	outcome := in.Invoke(context.Background(), "prompt")
	if outcome.Err != nil {
		t.Fatalf("unexpected error: %v", outcome.Err)
	}
	if outcome.Fields["invoice_number"] != "98765" {
		t.Errorf("invoice_number = %v", outcome.Fields["invoice_number"])
	}
	if outcome.PromptTokens != 100 || outcome.CompletionTokens != 20 {
		t.Errorf("token usage = %d/%d, want 100/20", outcome.PromptTokens, outcome.CompletionTokens)
	}
}

func TestInvokeUnwrapsDoubleEncodedObject(t *testing.T) {
	// The model sometimes returns the object itself encoded as a JSON
	// string. One bounded unwrap resolves it to the inner object.
	in := newTestInvoker(&fakeCompleter{text: `"{\"seller\": \"Acme\"}"`})

	outcome := in.Invoke(context.Background(), "prompt")
	if outcome.Err != nil {
		t.Fatalf("unexpected error: %v", outcome.Err)
	}
	if outcome.Fields["seller"] != "Acme" {
		t.Errorf("seller = %v, want Acme (inner object, not the literal string)", outcome.Fields["seller"])
	}
}

func TestInvokeStripsCodeFences(t *testing.T) {
	in := newTestInvoker(&fakeCompleter{text: "```json\n{\"date\": \"2023-11-10\"}\n```"})

	outcome := in.Invoke(context.Background(), "prompt")
	if outcome.Err != nil {
		t.Fatalf("unexpected error: %v", outcome.Err)
	}
	if outcome.Fields["date"] != "2023-11-10" {
		t.Errorf("date = %v", outcome.Fields["date"])
	}
}

func TestInvokeUnparsableOutputKeepsRaw(t *testing.T) {
	raw := "I'm sorry, I cannot extract fields from this document."
	in := newTestInvoker(&fakeCompleter{text: raw})

	outcome := in.Invoke(context.Background(), "prompt")
	if !errors.Is(outcome.Err, ErrUnparsableOutput) {
		t.Fatalf("err = %v, want ErrUnparsableOutput", outcome.Err)
	}
	if outcome.Raw != raw {
		t.Errorf("raw output not preserved: %q", outcome.Raw)
	}
	if outcome.Fields != nil {
		t.Error("fields should be nil on parse failure")
	}
}

func TestInvokeNonObjectJSONIsUnparsable(t *testing.T) {
	in := newTestInvoker(&fakeCompleter{text: `[1, 2, 3]`})

	outcome := in.Invoke(context.Background(), "prompt")
	if !errors.Is(outcome.Err, ErrUnparsableOutput) {
		t.Fatalf("err = %v, want ErrUnparsableOutput for a JSON array", outcome.Err)
	}
}

func TestInvokeEmptyResponse(t *testing.T) {
	in := newTestInvoker(&fakeCompleter{text: ""})

	outcome := in.Invoke(context.Background(), "prompt")
	if !errors.Is(outcome.Err, ErrEmptyResponse) {
		t.Fatalf("err = %v, want ErrEmptyResponse", outcome.Err)
	}
}

func TestInvokeProviderFailureNeverPanics(t *testing.T) {
	in := newTestInvoker(&fakeCompleter{err: errors.New("connection refused")})

	outcome := in.Invoke(context.Background(), "prompt")
	if !errors.Is(outcome.Err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", outcome.Err)
	}
}

func TestInvokeProviderEmptyChoicesClassified(t *testing.T) {
	in := newTestInvoker(&fakeCompleter{err: NewLLMError("Complete", ErrEmptyResponse, "no response choices")})

	outcome := in.Invoke(context.Background(), "prompt")
	if !errors.Is(outcome.Err, ErrEmptyResponse) {
		t.Fatalf("err = %v, want ErrEmptyResponse preserved from provider", outcome.Err)
	}
}

func TestDecodeFieldsNullValues(t *testing.T) {
	fields, err := decodeFields(`{"due_date": null, "amount": "10.00"}`)
	if err != nil {
		t.Fatalf("decodeFields: %v", err)
	}
	if v, ok := fields["due_date"]; !ok || v != nil {
		t.Errorf("due_date = %v, want explicit null preserved", v)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `{"a":1}`, `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
