// Package message translates between raw RFC 5322 octets and the structured
// form the gateway exposes: a fixed header set plus one selected body.
package message

import (
	"fmt"
	"io"
	"strings"

	gomessage "github.com/emersion/go-message"
)

// HeaderSet is the fixed set of decoded header fields exposed for every
// message. Absent fields are empty strings, never omitted.
type HeaderSet struct {
	Subject     string `json:"Subject"`
	From        string `json:"From"`
	To          string `json:"To"`
	Cc          string `json:"Cc"`
	Date        string `json:"Date"`
	ContentType string `json:"Content-Type"`
	MessageID   string `json:"Message-ID"`
}

// Message is a decoded mail message: headers plus the selected body text.
type Message struct {
	Headers HeaderSet `json:"headers"`
	Body    string    `json:"body"`
}

// Summary holds the header fields shown when listing a mailbox.
type Summary struct {
	Subject   string
	From      string
	Date      string
	MessageID string
}

// Summarize extracts a listing summary from a parsed header. Subject and From
// are decoded; Date and Message-ID are passed through as-is.
func Summarize(h gomessage.Header) Summary {
	return Summary{
		Subject:   DecodeHeader(h.Get("Subject")),
		From:      DecodeHeader(h.Get("From")),
		Date:      h.Get("Date"),
		MessageID: h.Get("Message-Id"),
	}
}

// Decode parses raw message octets into a Message. Body selection: the most
// recently seen text/html part wins over the most recently seen text/plain
// part; parts whose disposition marks them as attachments are never body
// candidates; a message with no candidate gets an empty body. Charset
// problems degrade to replacement characters, they do not fail the decode.
func Decode(r io.Reader) (Message, error) {
	entity, err := gomessage.Read(r)
	if err != nil && !gomessage.IsUnknownCharset(err) {
		return Message{}, fmt.Errorf("parse message: %w", err)
	}

	msg := Message{Headers: headerSet(entity.Header)}

	html, plain := bodyCandidates(entity)
	switch {
	case html != nil:
		msg.Body = *html
	case plain != nil:
		msg.Body = *plain
	}
	return msg, nil
}

func headerSet(h gomessage.Header) HeaderSet {
	return HeaderSet{
		Subject:     DecodeHeader(h.Get("Subject")),
		From:        DecodeHeader(h.Get("From")),
		To:          DecodeHeader(h.Get("To")),
		Cc:          DecodeHeader(h.Get("Cc")),
		Date:        h.Get("Date"),
		ContentType: h.Get("Content-Type"),
		MessageID:   h.Get("Message-Id"),
	}
}

// bodyCandidates walks the part tree and returns the HTML and plain
// candidates. A non-multipart payload is always the plain candidate,
// whatever its declared type.
func bodyCandidates(entity *gomessage.Entity) (html, plain *string) {
	if mr := entity.MultipartReader(); mr != nil {
		collectParts(mr, &html, &plain)
		return html, plain
	}

	b, err := io.ReadAll(entity.Body)
	if err != nil || len(b) == 0 {
		return nil, nil
	}
	s := toUTF8(b)
	return nil, &s
}

func collectParts(mr gomessage.MultipartReader, html, plain **string) {
	for {
		part, err := mr.NextPart()
		if err != nil && !gomessage.IsUnknownCharset(err) {
			return
		}
		if part == nil {
			return
		}

		if disp := part.Header.Get("Content-Disposition"); strings.Contains(strings.ToLower(disp), "attachment") {
			continue
		}

		if nested := part.MultipartReader(); nested != nil {
			collectParts(nested, html, plain)
			continue
		}

		ct, _, _ := part.Header.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil || len(body) == 0 {
			continue
		}
		s := toUTF8(body)

		// Last-wins: a later part of the same type replaces an earlier one.
		switch ct {
		case "text/html":
			*html = &s
		case "text/plain":
			*plain = &s
		}
	}
}

func toUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
