// Package prompt builds the single request string sent to the LLM.
//
// The builder always enforces the same structural scaffold — parsing
// assistant role, no hallucination, omit missing fields, JSON-object-only
// output — around whichever instruction body is in effect. A non-empty user
// override replaces the default instruction body, never the scaffold. The
// extracted document text is appended as a labeled section. No truncation
// happens here; an oversized prompt is the invoker's failure to surface.
package prompt

import "strings"

// systemRules is the fixed scaffold wrapped around every instruction body.
const systemRules = `You are a document parsing assistant.

Your task is to extract structured data from the document text provided below.

Rules:
- Use only the information explicitly visible in the text.
- Do not hallucinate, guess, or fabricate values.
- If any field is not clearly present, omit it from the output.
- The response must be a valid JSON object.
- Do not include explanations, formatting guides, or extra text.`

// Build combines the instruction body and the extracted document text into
// the final prompt. When override is empty, defaultInstructions is used as
// the body.
func Build(override, defaultInstructions, fullText string) string {
	body := strings.TrimSpace(override)
	if body == "" {
		body = strings.TrimSpace(defaultInstructions)
	}

	var b strings.Builder
	b.WriteString(systemRules)
	if body != "" {
		b.WriteString("\n\n")
		b.WriteString(body)
	}
	b.WriteString("\n\nOCR Text:\n")
	b.WriteString(strings.TrimSpace(fullText))
	return b.String()
}
