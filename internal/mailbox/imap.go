package mailbox

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	gomessage "github.com/emersion/go-message"

	"mailgate/internal/config"
	"mailgate/internal/message"
)

var (
	headerSection = &imap.FetchItemBodySection{Specifier: imap.PartSpecifierHeader, Peek: true}
	fullSection   = &imap.FetchItemBodySection{Peek: true}
)

// IMAPSession is a Session over IMAP. Message IDs map to sequence numbers in
// the selected folder. Deletion marks are \Deleted flags; Close expunges
// them, matching the commit-on-close behavior of POP3.
type IMAPSession struct {
	client  *imapclient.Client
	count   int
	folder  string
	deleted bool
	logger  *slog.Logger
}

// OpenIMAP connects to the IMAP server, logs in, and selects the configured
// folder to fix the message count.
func OpenIMAP(cfg *config.Config, logger *slog.Logger) (*IMAPSession, error) {
	addr := net.JoinHostPort(cfg.Mailbox.Host, fmt.Sprintf("%d", cfg.Mailbox.Port))

	var client *imapclient.Client
	var err error
	if cfg.Mailbox.TLS {
		client, err = imapclient.DialTLS(addr, &imapclient.Options{
			TLSConfig: &tls.Config{
				ServerName:         cfg.Mailbox.Host,
				InsecureSkipVerify: cfg.Mailbox.InsecureSkipVerify,
			},
		})
	} else {
		client, err = imapclient.DialInsecure(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: imap connect %s: %w", ErrConnection, addr, err)
	}

	if err := client.Login(cfg.User, cfg.Password).Wait(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: imap login %s: %w", ErrConnection, cfg.User, err)
	}

	selectData, err := client.Select(cfg.Mailbox.Folder, nil).Wait()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: imap select %s: %w", ErrConnection, cfg.Mailbox.Folder, err)
	}

	logger.Info("imap session opened",
		"host", cfg.Mailbox.Host,
		"folder", cfg.Mailbox.Folder,
		"messages", selectData.NumMessages,
	)
	return &IMAPSession{
		client: client,
		count:  int(selectData.NumMessages),
		folder: cfg.Mailbox.Folder,
		logger: logger,
	}, nil
}

// Count returns the number of messages in the folder at open time.
func (s *IMAPSession) Count() int {
	return s.count
}

// FetchSummary fetches only the message header and decodes the listing
// fields.
func (s *IMAPSession) FetchSummary(id int) (message.Summary, error) {
	raw, err := s.fetchSection(id, headerSection)
	if err != nil {
		return message.Summary{}, err
	}
	entity, err := gomessage.Read(bytes.NewReader(raw))
	if err != nil && !gomessage.IsUnknownCharset(err) {
		return message.Summary{}, fmt.Errorf("parse header %d: %w", id, err)
	}
	return message.Summarize(entity.Header), nil
}

// Fetch retrieves the complete raw message and decodes it.
func (s *IMAPSession) Fetch(id int) (message.Message, error) {
	raw, err := s.fetchSection(id, fullSection)
	if err != nil {
		return message.Message{}, err
	}
	msg, err := message.Decode(bytes.NewReader(raw))
	if err != nil {
		return message.Message{}, fmt.Errorf("decode message %d: %w", id, err)
	}
	return msg, nil
}

func (s *IMAPSession) fetchSection(id int, section *imap.FetchItemBodySection) ([]byte, error) {
	seqSet := imap.SeqSetNum(uint32(id))
	fetchCmd := s.client.Fetch(seqSet, &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{section},
	})
	buffers, err := fetchCmd.Collect()
	if err != nil {
		return nil, fmt.Errorf("imap fetch %d: %w", id, err)
	}
	if len(buffers) == 0 {
		return nil, fmt.Errorf("imap fetch %d: no data", id)
	}
	content := buffers[0].FindBodySection(section)
	if len(content) == 0 {
		return nil, fmt.Errorf("imap fetch %d: empty body section", id)
	}
	return content, nil
}

// MarkDeleted flags one message \Deleted. The flag is expunged at Close.
func (s *IMAPSession) MarkDeleted(id int) error {
	seqSet := imap.SeqSetNum(uint32(id))
	storeCmd := s.client.Store(seqSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return fmt.Errorf("imap store %d: %w", id, err)
	}
	s.deleted = true
	return nil
}

// Close expunges any deletion marks, logs out, and releases the connection.
func (s *IMAPSession) Close() error {
	defer s.client.Close()
	if s.deleted {
		if err := s.client.Expunge().Close(); err != nil {
			return fmt.Errorf("imap expunge: %w", err)
		}
	}
	if err := s.client.Logout().Wait(); err != nil {
		return fmt.Errorf("imap logout: %w", err)
	}
	return nil
}
