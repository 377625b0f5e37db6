package message

import (
	"io"
	"mime"
	"strings"

	"github.com/emersion/go-message/charset"
)

// DecodeHeader decodes RFC 2047 encoded-words in a header value. Decoding is
// best-effort: an encoded-word with an unrecognized charset falls back to
// UTF-8 with invalid sequences replaced, and any other failure returns the
// raw value unchanged. It never returns an error.
func DecodeHeader(raw string) string {
	if raw == "" {
		return ""
	}
	dec := mime.WordDecoder{CharsetReader: charsetReader}
	decoded, err := dec.DecodeHeader(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func charsetReader(name string, input io.Reader) (io.Reader, error) {
	r, err := charset.Reader(name, input)
	if err == nil {
		return r, nil
	}
	// Unknown charset: treat the payload as UTF-8 with replacement.
	b, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(strings.ToValidUTF8(string(b), "�")), nil
}
