package ocr

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine using a local Tesseract installation
// through the gosseract client. No network access or credentials required.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
	languages     []string
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine recognizing
// English text.
func NewTesseractEngine() *TesseractEngine {
	return NewTesseractEngineWithLanguages("eng")
}

// NewTesseractEngineWithLanguages constructs a Tesseract engine for the
// given language codes (Tesseract traineddata names, e.g. "eng", "deu").
func NewTesseractEngineWithLanguages(languages ...string) *TesseractEngine {
	return &TesseractEngine{
		clientFactory: gosseract.NewClient,
		languages:     languages,
	}
}

// Recognize extracts text from a single raster image.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (*Result, error) {
	const op = "Recognize"

	if len(image) == 0 {
		return nil, NewOCRError(op, ErrEmptyImage, "")
	}
	if len(image) > MaxImageSizeBytes {
		return nil, NewOCRError(op, ErrImageTooLarge, "")
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapOCRError(op, err, "context done before recognition")
	}

	client := e.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(image); err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "set image: "+err.Error())
	}
	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return nil, WrapOCRError(op, ErrOCRFailed, "set languages: "+err.Error())
		}
	}

	text, err := client.Text()
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "recognize text: "+err.Error())
	}

	return &Result{
		Text:       strings.TrimSpace(text),
		Confidence: wordConfidence(client),
	}, nil
}

// wordConfidence averages Tesseract's per-word confidences. Returns zero
// when the client reports no word boxes, which callers treat as
// "engine did not report confidence".
func wordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}
