package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docextract/internal/cache"
	"docextract/internal/extract"
	"docextract/internal/llm"
	"docextract/internal/ocr"
	"docextract/internal/validate"
	"docextract/pkg/models"
)

const defaultInstructions = "Extract all invoice fields as JSON."

// fakeEngine returns fixed OCR text for any image.
type fakeEngine struct {
	text string
}

func (f *fakeEngine) Recognize(ctx context.Context, image []byte) (*ocr.Result, error) {
	return &ocr.Result{Text: f.text, Confidence: 0.9}, nil
}

// fakePDF is unused by the image-based tests but satisfies the extractor.
type fakePDF struct{}

func (fakePDF) ReadNativeText(path string) ([]string, error) { return nil, nil }
func (fakePDF) RenderPages(path string) ([][]byte, error)    { return nil, nil }

// fakeCompleter captures the prompt it received and replays a response.
type fakeCompleter struct {
	gotPrompt string
	text      string
	err       error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, params llm.SamplingParams) (*llm.Envelope, error) {
	f.gotPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Envelope{Text: f.text}, nil
}

func newService(t *testing.T, engine *fakeEngine, completer *fakeCompleter) *Service {
	t.Helper()
	c, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	extractor := extract.New(engine, fakePDF{}, fakePDF{}, c, 10)
	invoker := llm.NewInvoker(completer, llm.DefaultSamplingParams("test-model"))
	return New(extractor, invoker, defaultInstructions)
}

func writeImage(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.png")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func TestProcessEndToEnd(t *testing.T) {
	source := "Invoice #98765 dated 2023-11-10, Buyer: John Smith, Amount: $720.50"
	completer := &fakeCompleter{
		text: `{"invoice_number":"98765","date":"2023-11-10","buyer":"John Smith","amount":"$720.50"}`,
	}
	svc := newService(t, &fakeEngine{text: source}, completer)

	result, err := svc.Process(context.Background(), writeImage(t, "raster-bytes"), Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.LLMError != "" {
		t.Fatalf("unexpected LLM error: %s", result.LLMError)
	}
	if len(result.Fields) != 4 {
		t.Fatalf("fields = %d, want 4", len(result.Fields))
	}
	if len(result.FieldConfidence) != len(result.Fields) {
		t.Fatalf("confidence keys = %d, want %d", len(result.FieldConfidence), len(result.Fields))
	}
	// Every extracted value substring-matches the source, so all four
	// fields corroborate at the high level.
	for name, score := range result.FieldConfidence {
		if score != validate.High {
			t.Errorf("field %s scored %v, want High", name, score)
		}
	}
	if !strings.Contains(completer.gotPrompt, source) {
		t.Error("prompt does not contain the extracted document text")
	}
	if !strings.Contains(completer.gotPrompt, defaultInstructions) {
		t.Error("prompt does not contain the default instructions")
	}
	if result.Metrics.ConfidenceScore != 0.9 {
		t.Errorf("scan confidence = %v, want engine-reported 0.9", result.Metrics.ConfidenceScore)
	}
}

func TestProcessPromptOverride(t *testing.T) {
	completer := &fakeCompleter{text: `{"total":"$5.00"}`}
	svc := newService(t, &fakeEngine{text: "Total $5.00"}, completer)

	override := "Extract only the total."
	_, err := svc.Process(context.Background(), writeImage(t, "img"), Options{PromptOverride: override})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(completer.gotPrompt, override) {
		t.Error("override missing from prompt")
	}
	if strings.Contains(completer.gotPrompt, defaultInstructions) {
		t.Error("default instructions should be replaced by the override")
	}
}

func TestProcessHallucinatedFieldScoredLow(t *testing.T) {
	completer := &fakeCompleter{text: `{"seller":"Acme"}`}
	svc := newService(t, &fakeEngine{text: "Invoice #1 Amount $9.99"}, completer)

	result, err := svc.Process(context.Background(), writeImage(t, "img"), Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.FieldConfidence["seller"] != validate.Low {
		t.Errorf("seller scored %v, want Low (value absent from source)", result.FieldConfidence["seller"])
	}
}

func TestProcessLLMFailureReturnsPartialResult(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("rate limited")}
	svc := newService(t, &fakeEngine{text: "Receipt total 12.00"}, completer)

	result, err := svc.Process(context.Background(), writeImage(t, "img"), Options{})
	if err != nil {
		t.Fatalf("LLM failure must not abort the pipeline: %v", err)
	}
	if result.LLMError == "" {
		t.Fatal("expected LLMError to be set")
	}
	if result.Fields != nil {
		t.Error("fields should be nil when the LLM stage failed")
	}
	if result.Text == "" || !strings.Contains(result.Text, "Receipt total") {
		t.Error("partial result must still carry the document text")
	}
	if result.Metrics.ConfidenceScore != 0.9 {
		t.Errorf("scan metrics missing from partial result: %+v", result.Metrics)
	}
}

func TestProcessUnparsableOutputPreservesRaw(t *testing.T) {
	raw := "no JSON here"
	completer := &fakeCompleter{text: raw}
	svc := newService(t, &fakeEngine{text: "some text"}, completer)

	result, err := svc.Process(context.Background(), writeImage(t, "img"), Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.RawOutput != raw {
		t.Errorf("raw output = %q, want preserved model text", result.RawOutput)
	}
	if result.LLMError == "" {
		t.Error("expected LLMError for unparsable output")
	}
}

func TestProcessExtractionFailureAborts(t *testing.T) {
	svc := newService(t, &fakeEngine{text: "x"}, &fakeCompleter{text: "{}"})

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := svc.Process(context.Background(), path, Options{})
	if !errors.Is(err, extract.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat to abort processing", err)
	}
}

func TestProcessIdempotentViaCache(t *testing.T) {
	completer := &fakeCompleter{text: `{"total":"12.00"}`}
	engine := &fakeEngine{text: "Total 12.00"}
	svc := newService(t, engine, completer)
	path := writeImage(t, "stable-bytes")

	first, err := svc.Process(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("first Process: %v", err)
	}
	second, err := svc.Process(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}

	if first.Text != second.Text {
		t.Error("cached run produced different text")
	}
	if second.Metrics.ScanTimeSec != 0 {
		t.Errorf("second scan time = %v, want 0 (served from cache)", second.Metrics.ScanTimeSec)
	}
}

func TestProcessResultDocumentIdentity(t *testing.T) {
	svc := newService(t, &fakeEngine{text: "text"}, &fakeCompleter{text: "{}"})
	path := writeImage(t, "img-bytes")

	result, err := svc.Process(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Document.Hash == "" {
		t.Error("result missing content hash")
	}
	if result.Document.Kind != models.KindImage {
		t.Errorf("kind = %s, want image", result.Document.Kind)
	}
}
