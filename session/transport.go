// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package session

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"src.bluestatic.org/popdesk/pkg/pop3"
)

// Transport establishes protocol sessions with a mailbox server.
type Transport interface {
	// Connect opens a session with the server at addr. The address may
	// omit the port, in which case the protocol default applies.
	Connect(ctx context.Context, addr string) (Conn, error)
}

// Conn is one connect-to-disconnect protocol session. All operations are
// synchronous; none is safe for concurrent use.
type Conn interface {
	// Login authenticates the session. A rejection by the server surfaces
	// as a *pop3.ServerError.
	Login(user, secret string) error
	// MessageCount reports the number of messages in the mailbox.
	MessageCount() (int, error)
	// Messages fetches every message in the mailbox, in server order with
	// 1-based sequence numbers.
	Messages() ([]Message, error)
	// Delete marks the message numbered seq as deleted. The deletion is
	// committed by Quit.
	Delete(seq int) error
	// Quit logs out of the session.
	Quit() error
	// Close tears down the connection.
	Close() error
}

// NewPOP3Transport returns the production Transport, speaking POP3 over TCP.
// A non-zero timeout bounds each command round trip.
func NewPOP3Transport(timeout time.Duration, log *zap.Logger) Transport {
	return &pop3Transport{
		timeout: timeout,
		log:     log,
	}
}

type pop3Transport struct {
	timeout time.Duration
	log     *zap.Logger
}

func (t *pop3Transport) Connect(ctx context.Context, addr string) (Conn, error) {
	client, err := pop3.Dial(ctx, addr, t.timeout, t.log)
	if err != nil {
		return nil, err
	}
	return &pop3Conn{client: client}, nil
}

type pop3Conn struct {
	client *pop3.Client
}

func (c *pop3Conn) Login(user, secret string) error {
	return c.client.Login(user, secret)
}

func (c *pop3Conn) MessageCount() (int, error) {
	count, _, err := c.client.Stat()
	return count, err
}

func (c *pop3Conn) Messages() ([]Message, error) {
	entries, err := c.client.List()
	if err != nil {
		return nil, err
	}
	msgs := make([]Message, len(entries))
	for i, entry := range entries {
		r, err := c.client.Retrieve(entry.Seq)
		if err != nil {
			return nil, err
		}
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("Failed to read message %d: %w", entry.Seq, err)
		}
		msgs[i] = parseMessage(entry.Seq, entry.Size, raw)
	}
	return msgs, nil
}

func (c *pop3Conn) Delete(seq int) error {
	return c.client.Delete(seq)
}

func (c *pop3Conn) Quit() error {
	return c.client.Quit()
}

func (c *pop3Conn) Close() error {
	return c.client.Close()
}
