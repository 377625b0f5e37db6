package mailbox

import (
	"fmt"
	"log/slog"

	pop3client "github.com/knadh/go-pop3"

	"mailgate/internal/config"
	"mailgate/internal/message"
)

// POP3Session is a Session over POP3/POP3S. The server defers deletion of
// DELE-marked messages until QUIT, so an abrupt disconnect leaves the
// mailbox untouched.
type POP3Session struct {
	conn   *pop3client.Conn
	count  int
	logger *slog.Logger
}

// OpenPOP3 connects to the POP3 server, authenticates, and fixes the message
// count with a single LIST.
func OpenPOP3(cfg *config.Config, logger *slog.Logger) (*POP3Session, error) {
	client := pop3client.New(pop3client.Opt{
		Host:          cfg.Mailbox.Host,
		Port:          cfg.Mailbox.Port,
		TLSEnabled:    cfg.Mailbox.TLS,
		TLSSkipVerify: cfg.Mailbox.InsecureSkipVerify,
	})

	conn, err := client.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: pop3 connect %s:%d: %w", ErrConnection, cfg.Mailbox.Host, cfg.Mailbox.Port, err)
	}

	if err := conn.Auth(cfg.User, cfg.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("%w: pop3 auth %s: %w", ErrConnection, cfg.User, err)
	}

	msgs, err := conn.List(0)
	if err != nil {
		conn.Quit()
		return nil, fmt.Errorf("%w: pop3 list: %w", ErrConnection, err)
	}

	logger.Info("pop3 session opened", "host", cfg.Mailbox.Host, "messages", len(msgs))
	return &POP3Session{conn: conn, count: len(msgs), logger: logger}, nil
}

// Count returns the number of messages seen at open time.
func (s *POP3Session) Count() int {
	return s.count
}

// FetchSummary retrieves only the header portion of one message (TOP with
// zero body lines) and decodes the listing fields.
func (s *POP3Session) FetchSummary(id int) (message.Summary, error) {
	entity, err := s.conn.Top(id, 0)
	if err != nil {
		return message.Summary{}, fmt.Errorf("pop3 top %d: %w", id, err)
	}
	return message.Summarize(entity.Header), nil
}

// Fetch retrieves the complete raw message and decodes it.
func (s *POP3Session) Fetch(id int) (message.Message, error) {
	raw, err := s.conn.RetrRaw(id)
	if err != nil {
		return message.Message{}, fmt.Errorf("pop3 retr %d: %w", id, err)
	}
	msg, err := message.Decode(raw)
	if err != nil {
		return message.Message{}, fmt.Errorf("decode message %d: %w", id, err)
	}
	return msg, nil
}

// MarkDeleted marks one message for deletion. The mark commits at Close.
func (s *POP3Session) MarkDeleted(id int) error {
	if err := s.conn.Dele(id); err != nil {
		return fmt.Errorf("pop3 dele %d: %w", id, err)
	}
	return nil
}

// Close sends QUIT, committing pending deletion marks, and releases the
// connection.
func (s *POP3Session) Close() error {
	return s.conn.Quit()
}
