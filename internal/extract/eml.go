package extract

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// readEmailText extracts the readable text of an RFC 822 message: a small
// header block (from, to, subject, date) followed by the plain-text body.
// For multipart messages only text/plain parts are used; HTML-only mail
// falls back to the raw body.
func readEmailText(data []byte) (string, error) {
	const op = "readEmailText"

	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return "", WrapExtractError(op, ErrUnreadableFile, "parse message: "+err.Error())
	}

	var out strings.Builder
	for _, h := range []string{"From", "To", "Subject", "Date"} {
		if v := msg.Header.Get(h); v != "" {
			out.WriteString(h)
			out.WriteString(": ")
			out.WriteString(v)
			out.WriteString("\n")
		}
	}
	out.WriteString("\n")

	body, err := emailBody(msg)
	if err != nil {
		return "", WrapExtractError(op, ErrUnreadableFile, "read body: "+err.Error())
	}
	out.WriteString(strings.TrimSpace(body))

	return strings.TrimSpace(out.String()), nil
}

func emailBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		raw, err := io.ReadAll(msg.Body)
		return string(raw), err
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		raw, readErr := io.ReadAll(msg.Body)
		return string(raw), readErr
	}

	var parts []string
	reader := multipart.NewReader(msg.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if partType != "" && partType != "text/plain" {
			continue
		}
		raw, err := io.ReadAll(part)
		if err != nil {
			return "", err
		}
		parts = append(parts, string(raw))
	}
	return strings.Join(parts, "\n"), nil
}
