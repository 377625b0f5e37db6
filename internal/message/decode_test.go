package message

import (
	"strings"
	"testing"

	gomessage "github.com/emersion/go-message"
)

func decodeString(t *testing.T, raw string) Message {
	t.Helper()
	msg, err := Decode(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return msg
}

func TestDecodeSinglePartPlain(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"Subject: hi\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Hello, World!"

	msg := decodeString(t, raw)
	if msg.Body != "Hello, World!" {
		t.Errorf("unexpected body: %q", msg.Body)
	}
	if msg.Headers.Subject != "hi" {
		t.Errorf("unexpected subject: %q", msg.Headers.Subject)
	}
	if msg.Headers.From != "alice@example.com" {
		t.Errorf("unexpected from: %q", msg.Headers.From)
	}
}

func TestDecodeHeaderSetAlwaysComplete(t *testing.T) {
	raw := "Subject: only a subject\r\n\r\nbody"
	msg := decodeString(t, raw)

	if msg.Headers.Subject != "only a subject" {
		t.Errorf("unexpected subject: %q", msg.Headers.Subject)
	}
	for name, got := range map[string]string{
		"From":         msg.Headers.From,
		"To":           msg.Headers.To,
		"Cc":           msg.Headers.Cc,
		"Date":         msg.Headers.Date,
		"Content-Type": msg.Headers.ContentType,
		"Message-ID":   msg.Headers.MessageID,
	} {
		if got != "" {
			t.Errorf("absent %s header should decode to empty string, got %q", name, got)
		}
	}
}

func TestDecodeEncodedHeaders(t *testing.T) {
	raw := "Subject: =?UTF-8?B?SGVsbG8sIOS4lueVjA==?=\r\n" +
		"From: =?ISO-8859-1?Q?Ren=E9?= <rene@example.com>\r\n" +
		"Date: Mon, 02 Jan 2006 15:04:05 -0700\r\n" +
		"Message-ID: <abc@example.com>\r\n" +
		"\r\n" +
		"body"

	msg := decodeString(t, raw)
	if msg.Headers.Subject != "Hello, 世界" {
		t.Errorf("unexpected subject: %q", msg.Headers.Subject)
	}
	if msg.Headers.From != "René <rene@example.com>" {
		t.Errorf("unexpected from: %q", msg.Headers.From)
	}
	// Date and Message-ID pass through undecoded.
	if msg.Headers.Date != "Mon, 02 Jan 2006 15:04:05 -0700" {
		t.Errorf("unexpected date: %q", msg.Headers.Date)
	}
	if msg.Headers.MessageID != "<abc@example.com>" {
		t.Errorf("unexpected message-id: %q", msg.Headers.MessageID)
	}
}

func multipartAlternative(first, firstType, second, secondType string) string {
	return "MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"B1\"\r\n" +
		"\r\n" +
		"--B1\r\n" +
		"Content-Type: " + firstType + "\r\n\r\n" +
		first + "\r\n" +
		"--B1\r\n" +
		"Content-Type: " + secondType + "\r\n\r\n" +
		second + "\r\n" +
		"--B1--\r\n"
}

func TestDecodeHTMLPreferredOverPlain(t *testing.T) {
	// HTML wins whichever order the parts arrive in.
	for name, raw := range map[string]string{
		"plain first": multipartAlternative("plain text", "text/plain", "<p>html</p>", "text/html"),
		"html first":  multipartAlternative("<p>html</p>", "text/html", "plain text", "text/plain"),
	} {
		msg := decodeString(t, raw)
		if msg.Body != "<p>html</p>" {
			t.Errorf("%s: body = %q, want html part", name, msg.Body)
		}
	}
}

func TestDecodeLastSameTypePartWins(t *testing.T) {
	raw := multipartAlternative("first", "text/plain", "second", "text/plain")
	msg := decodeString(t, raw)
	if msg.Body != "second" {
		t.Errorf("body = %q, want the later text/plain part", msg.Body)
	}
}

func TestDecodeAttachmentNeverBecomesBody(t *testing.T) {
	raw := "MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"B1\"\r\n" +
		"\r\n" +
		"--B1\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Disposition: attachment; filename=\"notes.txt\"\r\n\r\n" +
		"attached text\r\n" +
		"--B1--\r\n"

	msg := decodeString(t, raw)
	if msg.Body != "" {
		t.Errorf("body = %q, want empty: the only text part is an attachment", msg.Body)
	}
}

func TestDecodeNestedMultipart(t *testing.T) {
	raw := "MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"OUTER\"\r\n" +
		"\r\n" +
		"--OUTER\r\n" +
		"Content-Type: multipart/alternative; boundary=\"INNER\"\r\n" +
		"\r\n" +
		"--INNER\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"plain text\r\n" +
		"--INNER\r\n" +
		"Content-Type: text/html\r\n\r\n" +
		"<p>html</p>\r\n" +
		"--INNER--\r\n" +
		"--OUTER\r\n" +
		"Content-Type: application/pdf\r\n" +
		"Content-Disposition: attachment; filename=\"doc.pdf\"\r\n\r\n" +
		"PDF-BYTES\r\n" +
		"--OUTER--\r\n"

	msg := decodeString(t, raw)
	if msg.Body != "<p>html</p>" {
		t.Errorf("body = %q, want html part from nested multipart", msg.Body)
	}
}

func TestDecodeQuotedPrintableLatin1Part(t *testing.T) {
	raw := "Content-Type: text/plain; charset=iso-8859-1\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"caf=E9"

	msg := decodeString(t, raw)
	if msg.Body != "café" {
		t.Errorf("body = %q, want decoded latin-1 text", msg.Body)
	}
}

func TestDecodeUnknownCharsetFallsBack(t *testing.T) {
	raw := "Content-Type: text/plain; charset=x-nope\r\n" +
		"\r\n" +
		"caf\xe9"

	msg := decodeString(t, raw)
	if msg.Body != "caf�" {
		t.Errorf("body = %q, want utf-8 with replacement", msg.Body)
	}
}

func TestDecodeSinglePartHTMLIsPlainCandidate(t *testing.T) {
	// A non-multipart payload is the plain candidate whatever its declared
	// type, and still ends up as the body when nothing else competes.
	raw := "Content-Type: text/html; charset=utf-8\r\n\r\n<p>only part</p>"
	msg := decodeString(t, raw)
	if msg.Body != "<p>only part</p>" {
		t.Errorf("body = %q", msg.Body)
	}
}

func TestDecodeEmptyBody(t *testing.T) {
	raw := "Subject: headers only\r\n\r\n"
	msg := decodeString(t, raw)
	if msg.Body != "" {
		t.Errorf("body = %q, want empty", msg.Body)
	}
}

func TestSummarize(t *testing.T) {
	raw := "Subject: =?UTF-8?B?SGVsbG8sIOS4lueVjA==?=\r\n" +
		"From: =?ISO-8859-1?Q?Ren=E9?= <rene@example.com>\r\n" +
		"Date: Tue, 10 Jun 2025 10:00:00 +0000\r\n" +
		"Message-ID: <id-1@example.com>\r\n" +
		"\r\n"

	entity, err := gomessage.Read(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("read entity: %v", err)
	}

	summary := Summarize(entity.Header)
	if summary.Subject != "Hello, 世界" {
		t.Errorf("subject = %q", summary.Subject)
	}
	if summary.From != "René <rene@example.com>" {
		t.Errorf("from = %q", summary.From)
	}
	if summary.Date != "Tue, 10 Jun 2025 10:00:00 +0000" {
		t.Errorf("date = %q", summary.Date)
	}
	if summary.MessageID != "<id-1@example.com>" {
		t.Errorf("message-id = %q", summary.MessageID)
	}
}
