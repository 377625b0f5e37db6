// Package sender manages transient, authenticated sessions against the SMTP
// delivery server.
package sender

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"

	"mailgate/internal/config"
)

var (
	// ErrConnection reports a failed session open: dial, TLS, or
	// authentication.
	ErrConnection = errors.New("smtp connection failed")

	// ErrSend reports a rejected or failed transmission on an open session.
	ErrSend = errors.New("smtp send failed")
)

// Session is one live, authenticated connection to the delivery server.
// Close must be called exactly once, on every exit path; a close failure
// never overrides an already-computed send outcome.
type Session struct {
	client *smtp.Client
	logger *slog.Logger
}

// Open dials the configured SMTP server and authenticates. With use_ssl the
// handshake is encrypted from the start; otherwise the connection is opened
// in plaintext and upgraded via STARTTLS when the server advertises it.
func Open(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	addr := net.JoinHostPort(cfg.SMTP.Host, fmt.Sprintf("%d", cfg.SMTP.Port))
	tlsConfig := &tls.Config{
		ServerName:         cfg.SMTP.Host,
		InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
	}

	var client *smtp.Client
	if cfg.SMTP.UseSSL {
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("%w: smtp tls dial %s: %w", ErrConnection, addr, err)
		}
		client, err = smtp.NewClient(conn, cfg.SMTP.Host)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: smtp handshake %s: %w", ErrConnection, addr, err)
		}
	} else {
		var err error
		client, err = smtp.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: smtp dial %s: %w", ErrConnection, addr, err)
		}
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				client.Close()
				return nil, fmt.Errorf("%w: smtp starttls %s: %w", ErrConnection, addr, err)
			}
		} else {
			logger.Warn("smtp server does not advertise STARTTLS, continuing in plaintext", "addr", addr)
		}
	}

	auth := smtp.PlainAuth("", cfg.User, cfg.Password, cfg.SMTP.Host)
	if err := client.Auth(auth); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: smtp auth %s: %w", ErrConnection, cfg.User, err)
	}

	logger.Info("smtp session opened", "host", cfg.SMTP.Host, "ssl", cfg.SMTP.UseSSL)
	return &Session{client: client, logger: logger}, nil
}

// Send transmits a fully-formed message to the given recipients.
func (s *Session) Send(from string, to []string, msg []byte) error {
	if err := s.client.Mail(from); err != nil {
		return fmt.Errorf("%w: MAIL FROM %s: %w", ErrSend, from, err)
	}
	for _, rcpt := range to {
		if err := s.client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("%w: RCPT TO %s: %w", ErrSend, rcpt, err)
		}
	}
	w, err := s.client.Data()
	if err != nil {
		return fmt.Errorf("%w: DATA: %w", ErrSend, err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("%w: write message: %w", ErrSend, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close message: %w", ErrSend, err)
	}
	return nil
}

// Close sends QUIT and releases the connection.
func (s *Session) Close() error {
	return s.client.Quit()
}
