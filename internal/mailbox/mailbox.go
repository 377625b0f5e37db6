// Package mailbox manages transient, authenticated sessions against the
// retrieval server. A session is opened for one caller-facing operation and
// released at the end of it; message IDs are 1-based and only meaningful
// within the session that produced them.
package mailbox

import (
	"errors"
	"fmt"
	"log/slog"

	"mailgate/internal/config"
	"mailgate/internal/message"
)

// ErrConnection reports a failed session open: dial, TLS, authentication, or
// the initial listing.
var ErrConnection = errors.New("mailbox connection failed")

// Session is one live, authenticated connection to the retrieval server.
// Count is fixed at open time; all IDs must be within [1, Count]. Close must
// be called exactly once, on every exit path, and commits pending deletion
// marks.
type Session interface {
	Count() int
	FetchSummary(id int) (message.Summary, error)
	Fetch(id int) (message.Message, error)
	MarkDeleted(id int) error
	Close() error
}

// Open dials the configured retrieval server and authenticates.
func Open(cfg *config.Config, logger *slog.Logger) (Session, error) {
	switch cfg.Mailbox.Protocol {
	case config.ProtocolPOP3, "":
		return OpenPOP3(cfg, logger)
	case config.ProtocolIMAP:
		return OpenIMAP(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported retrieval protocol: %s", cfg.Mailbox.Protocol)
	}
}
