package message

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"
)

// BuildText assembles an outgoing plain-text message. The body is sent
// quoted-printable with a UTF-8 charset.
func BuildText(from string, to []string, subject, body string) ([]byte, error) {
	var buf bytes.Buffer
	writeEnvelopeHeaders(&buf, from, to, subject)
	writeHeader(&buf, "Content-Type", `text/plain; charset="utf-8"`)
	writeHeader(&buf, "Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildHTML assembles an outgoing HTML message: a multipart/alternative
// container holding a single text/html part.
func BuildHTML(from string, to []string, subject, body string) ([]byte, error) {
	var buf bytes.Buffer
	writeEnvelopeHeaders(&buf, from, to, subject)

	writer := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", writer.Boundary()))
	buf.WriteString("\r\n")

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Type", `text/html; charset="utf-8"`)
	partHeader.Set("Content-Transfer-Encoding", "quoted-printable")
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("create html part: %w", err)
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), nil
}

func writeEnvelopeHeaders(buf *bytes.Buffer, from string, to []string, subject string) {
	writeHeader(buf, "From", from)
	if len(to) > 0 {
		writeHeader(buf, "To", strings.Join(to, ", "))
	}
	if subject != "" {
		writeHeader(buf, "Subject", mime.QEncoding.Encode("utf-8", subject))
	}
	writeHeader(buf, "Date", time.Now().Format(time.RFC1123Z))
	writeHeader(buf, "MIME-Version", "1.0")
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	if value == "" {
		return
	}
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}
