// Package pdf provides the two PDF capabilities the extractor needs:
// reading the native text layer per page and rasterizing pages to images
// for the OCR fallback. Both are backed by MuPDF via go-fitz.
package pdf

import (
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// RenderDPI is the resolution used when rasterizing pages for OCR.
// 150 DPI keeps page images well under cloud OCR size limits while staying
// readable for Tesseract.
const RenderDPI = 150

// ErrInvalidPDF is returned when the file cannot be opened as a PDF.
var ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

// Kit implements the native-text and rasterization capabilities over one
// MuPDF binding. Methods open and close the document per call; a Kit holds
// no state and is safe for concurrent use.
type Kit struct{}

// ReadNativeText returns the embedded text layer of each page in order.
// Pages without a text layer yield empty strings; deciding whether the
// document as a whole has usable text is the caller's concern.
func (Kit) ReadNativeText(path string) ([]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("pdf: open %s: %w", path, ErrInvalidPDF)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("pdf: read text of page %d: %w", i+1, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// RenderPages rasterizes every page to a PNG image and returns the encoded
// bytes in page order. Images are held in memory and handed straight to the
// OCR engine, so there are no temporary page files to clean up.
func (Kit) RenderPages(path string) ([][]byte, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("pdf: open %s: %w", path, ErrInvalidPDF)
	}
	defer doc.Close()

	images := make([][]byte, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		png, err := doc.ImagePNG(i, RenderDPI)
		if err != nil {
			return nil, fmt.Errorf("pdf: render page %d: %w", i+1, err)
		}
		images = append(images, png)
	}
	return images, nil
}
