// Package gateway implements the caller-facing mailbox operations. Every
// operation opens its own protocol session, performs its work, and guarantees
// the session is released on every exit path. Batch operations record one
// result or error per requested ID instead of failing the whole request.
package gateway

import (
	"fmt"
	"log/slog"
	"strings"

	"mailgate/internal/config"
	"mailgate/internal/mailbox"
	"mailgate/internal/message"
	"mailgate/internal/sender"
)

// deliverySession is the slice of sender.Session the gateway needs.
type deliverySession interface {
	Send(from string, to []string, msg []byte) error
	Close() error
}

// Gateway exposes the mailbox operations backed by the configured retrieval
// and delivery servers.
type Gateway struct {
	cfg    *config.Config
	logger *slog.Logger

	openMailbox func() (mailbox.Session, error)
	openSender  func() (deliverySession, error)
}

// New creates a Gateway using cfg for every session it opens.
func New(cfg *config.Config, logger *slog.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		logger: logger,
		openMailbox: func() (mailbox.Session, error) {
			return mailbox.Open(cfg, logger)
		},
		openSender: func() (deliverySession, error) {
			return sender.Open(cfg, logger)
		},
	}
}

// PollEntry is one listing result: a header summary, or an error for the
// message that failed to parse.
type PollEntry struct {
	ID        int    `json:"id"`
	Subject   string `json:"Subject"`
	From      string `json:"From"`
	Date      string `json:"Date"`
	MessageID string `json:"Message-ID"`
	Error     string `json:"error,omitempty"`
}

// FetchEntry is one batch-fetch result. ID echoes the requested value, which
// may not have been a valid integer.
type FetchEntry struct {
	ID      any                `json:"id"`
	Headers *message.HeaderSet `json:"headers,omitempty"`
	Body    *string            `json:"body,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// DeleteResult reports which IDs were marked for deletion and which failed,
// keyed by the textual form of the requested value.
type DeleteResult struct {
	Deleted []int             `json:"deleted"`
	Failed  map[string]string `json:"failed"`
}

// PollEmails lists a header summary for every message in the mailbox. A
// per-message parse failure becomes an error entry; it never aborts the
// listing.
func (g *Gateway) PollEmails() ([]PollEntry, error) {
	session, err := g.openMailbox()
	if err != nil {
		return nil, err
	}
	defer g.closeMailbox(session, "pollEmails")

	count := session.Count()
	g.logger.Info("polling mailbox", "messages", count)

	entries := make([]PollEntry, 0, count)
	for id := 1; id <= count; id++ {
		summary, err := session.FetchSummary(id)
		if err != nil {
			g.logger.Warn("summary failed", "id", id, "error", err)
			entries = append(entries, PollEntry{
				ID:    id,
				Error: fmt.Sprintf("failed to parse headers for message %d: %v", id, err),
			})
			continue
		}
		entries = append(entries, PollEntry{
			ID:        id,
			Subject:   summary.Subject,
			From:      summary.From,
			Date:      summary.Date,
			MessageID: summary.MessageID,
		})
	}
	return entries, nil
}

// GetEmailsByID fetches the full content of each requested message. One
// session serves the whole batch; each distinct ID gets exactly one entry.
func (g *Gateway) GetEmailsByID(ids []any) ([]FetchEntry, error) {
	session, err := g.openMailbox()
	if err != nil {
		return nil, err
	}
	defer g.closeMailbox(session, "getEmailsById")

	outcomes := runBatch(ids, session.Count(), session.Fetch)
	entries := make([]FetchEntry, 0, len(outcomes))
	for _, out := range outcomes {
		entry := FetchEntry{ID: out.raw}
		if out.err != nil {
			g.logger.Warn("fetch failed", "id", out.key, "error", out.err)
			entry.Error = out.err.Error()
		} else {
			msg := out.value
			body := msg.Body
			entry.Headers = &msg.Headers
			entry.Body = &body
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DeleteEmailsByID marks each requested message for deletion. The marks
// commit when the session closes at the end of the call.
func (g *Gateway) DeleteEmailsByID(ids []any) (*DeleteResult, error) {
	session, err := g.openMailbox()
	if err != nil {
		return nil, err
	}
	defer g.closeMailbox(session, "deleteEmailsById")

	result := &DeleteResult{Deleted: []int{}, Failed: map[string]string{}}
	outcomes := runBatch(ids, session.Count(), func(id int) (struct{}, error) {
		return struct{}{}, session.MarkDeleted(id)
	})
	for _, out := range outcomes {
		if out.err != nil {
			g.logger.Warn("delete failed", "id", out.key, "error", out.err)
			result.Failed[out.key] = out.err.Error()
			continue
		}
		result.Deleted = append(result.Deleted, out.id)
	}
	return result, nil
}

// SendTextEmail sends body as a plain-text message.
func (g *Gateway) SendTextEmail(from string, to []string, subject, body string) error {
	return g.send(from, to, subject, body, message.BuildText)
}

// SendHTMLEmail sends body as a single-alternative HTML message.
func (g *Gateway) SendHTMLEmail(from string, to []string, subject, body string) error {
	return g.send(from, to, subject, body, message.BuildHTML)
}

func (g *Gateway) send(from string, to []string, subject, body string, build func(string, []string, string, string) ([]byte, error)) error {
	if len(to) == 0 {
		return fmt.Errorf("%w: toAddresses must be a non-empty list", ErrValidation)
	}
	// Server policy, not this gateway, decides whether a mismatched sender
	// is acceptable.
	if from != g.cfg.User {
		g.logger.Warn("fromAddress differs from authenticated user, send may be rejected",
			"from", from, "user", g.cfg.User)
	}

	msg, err := build(from, to, subject, body)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	session, err := g.openSender()
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			g.logger.Warn("smtp close failed", "error", err)
		}
	}()

	if err := session.Send(from, to, msg); err != nil {
		return err
	}
	g.logger.Info("email sent", "to", strings.Join(to, ", "))
	return nil
}

func (g *Gateway) closeMailbox(s mailbox.Session, op string) {
	if err := s.Close(); err != nil {
		g.logger.Warn("mailbox close failed", "op", op, "error", err)
	}
}
