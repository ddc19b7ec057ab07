package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"regexp"
	"strings"
	"time"
)

// headerOverrides are the optional top-level headers stamped onto relayed
// messages.
type headerOverrides struct {
	ReplyTo         string
	ListUnsubscribe string
}

// buildMIME assembles a multipart/alternative message with a plain-text part
// followed by the HTML part, both base64 encoded.
func buildMIME(from mail.Address, msg *Message, overrides headerOverrides) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	headers := []struct{ key, value string }{
		{"MIME-Version", "1.0"},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"From", from.String()},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Reply-To", overrides.ReplyTo},
		{"List-Unsubscribe", overrides.ListUnsubscribe},
		{"Content-Type", fmt.Sprintf(`multipart/alternative; boundary=%q`, writer.Boundary())},
	}
	for _, h := range headers {
		if h.value == "" {
			continue
		}
		fmt.Fprintf(&buf, "%s: %s\r\n", h.key, h.value)
	}
	buf.WriteString("\r\n")

	for _, part := range []struct{ contentType, body string }{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	} {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", part.contentType)
		header.Set("Content-Transfer-Encoding", "base64")
		w, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("creating mime part: %w", err)
		}
		if _, err := w.Write(wrapBase64(part.body)); err != nil {
			return nil, fmt.Errorf("writing mime part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing mime writer: %w", err)
	}
	return buf.Bytes(), nil
}

// wrapBase64 encodes a body with line breaks every 76 characters as required
// for mail transport.
func wrapBase64(body string) []byte {
	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	var out bytes.Buffer
	for len(encoded) > 76 {
		out.WriteString(encoded[:76])
		out.WriteString("\r\n")
		encoded = encoded[76:]
	}
	out.WriteString(encoded)
	return out.Bytes()
}

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<script\b.*?>.*?</script>|<style\b.*?>.*?</style>`)
	lineBreakRe   = regexp.MustCompile(`(?i)<br\s*/?>`)
	paragraphRe   = regexp.MustCompile(`(?i)</(?:p|div|tr|h[1-6])\s*>`)
	anyTagRe      = regexp.MustCompile(`(?s)<.*?>`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
	spaceRunRe    = regexp.MustCompile(`[ \t]+`)
)

// htmlToText derives the plain-text alternative from rendered HTML. It is a
// rough reduction, good enough for preview panes and text-only clients.
func htmlToText(html string) string {
	text := scriptStyleRe.ReplaceAllString(html, "")
	text = lineBreakRe.ReplaceAllString(text, "\n")
	text = paragraphRe.ReplaceAllString(text, "\n\n")
	text = anyTagRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&#34;", `"`)
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	// Ampersand last, so &amp;lt; cannot double-decode into a tag.
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = spaceRunRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
