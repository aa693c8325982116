// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// Package session drives the authenticated mailbox session lifecycle: it
// resolves a mail address to a server, runs the
// connect→login→inventory→logout→disconnect cycle over the transport, and
// owns the in-memory mailbox snapshot between operations.
package session

import (
	"context"

	"go.uber.org/zap"

	"src.bluestatic.org/popdesk/hostdir"
)

type state int

const (
	stateSignedOut state = iota
	stateAuthenticating
	stateSignedIn
	stateRefreshing
	stateMutating
	stateEnding
)

func (s state) String() string {
	switch s {
	case stateSignedOut:
		return "SignedOut"
	case stateAuthenticating:
		return "Authenticating"
	case stateSignedIn:
		return "SignedIn"
	case stateRefreshing:
		return "Refreshing"
	case stateMutating:
		return "Mutating"
	case stateEnding:
		return "Ending"
	}
	return "Unknown"
}

// Session is the orchestrator for one signed-in mailbox. It is single-user
// and synchronous: every operation blocks until its network round trips
// complete, and at most one protocol session is open at a time. A Session is
// not goroutine safe; the state machine refuses overlapping operations rather
// than serializing them.
type Session struct {
	dir       *hostdir.Directory
	transport Transport
	log       *zap.Logger

	state state

	// Credentials are held only while signed in, never persisted.
	address  string
	username string
	secret   string
	host     string

	// conn is the live protocol session, nil when none is open.
	conn Conn

	// snapshot is replaced whole by a successful refresh, never mutated in
	// place, so a reader holding the previous pointer keeps a consistent
	// view.
	snapshot *Snapshot
	stale    bool
}

// New creates a signed-out Session that resolves servers through dir and
// reaches them through transport. Each Session is independent; callers that
// want the one-session-per-process behavior of a desktop client simply create
// one.
func New(dir *hostdir.Directory, transport Transport, log *zap.Logger) *Session {
	return &Session{
		dir:       dir,
		transport: transport,
		log:       log,
	}
}

// SignIn validates the address/secret pair, resolves the mail domain to a
// server, and runs a full mailbox refresh to prove the credentials. On any
// failure the Session remains (or returns to) signed out with no credentials
// retained, and the error propagates unchanged: a *CredentialsFormError or
// ErrHostNotFound before any network activity, a *pop3.ServerError or
// transport error from the refresh cycle.
func (s *Session) SignIn(ctx context.Context, address, secret string) error {
	switch s.state {
	case stateSignedOut, stateSignedIn:
	default:
		return ErrSessionBusy
	}

	local, domain, err := parseCredentials(address, secret)
	if err != nil {
		return err
	}

	host, err := s.dir.Resolve(domain)
	if err != nil {
		return err
	}

	s.state = stateAuthenticating
	s.address = address
	s.username = local
	s.secret = secret
	s.host = host

	if err := s.refresh(ctx); err != nil {
		s.signOut()
		return err
	}

	s.state = stateSignedIn
	s.log.Info("Signed in", zap.String("address", address), zap.String("host", host))
	return nil
}

// RefreshMailbox replaces the mailbox snapshot with the server's current
// contents. The previous snapshot is kept untouched unless the whole
// inventory cycle succeeds.
func (s *Session) RefreshMailbox(ctx context.Context) error {
	switch s.state {
	case stateSignedIn:
	case stateRefreshing, stateMutating, stateAuthenticating:
		return ErrSessionBusy
	default:
		return ErrNotSignedIn
	}

	s.state = stateRefreshing
	defer func() { s.state = stateSignedIn }()
	return s.refresh(ctx)
}

// DeleteMessage deletes the message with the given sequence number from the
// server. The number must come from the current snapshot; an out-of-range
// number is rejected by the server, not locally. The snapshot is marked stale
// and is not refreshed automatically: sequence numbers shift after a
// deletion, so the caller decides when to refresh.
func (s *Session) DeleteMessage(ctx context.Context, seq int) error {
	switch s.state {
	case stateSignedIn:
	case stateRefreshing, stateMutating, stateAuthenticating:
		return ErrSessionBusy
	default:
		return ErrNotSignedIn
	}

	s.state = stateMutating
	defer func() { s.state = stateSignedIn }()

	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}

	err = func() error {
		if err := conn.Login(s.username, s.secret); err != nil {
			return err
		}
		if err := conn.Delete(seq); err != nil {
			return err
		}
		// QUIT commits the deletion; it is a real step here, not cleanup.
		return conn.Quit()
	}()
	if err != nil {
		s.release(true)
		return err
	}
	s.release(false)

	s.stale = true
	s.log.Info("Deleted message", zap.Int("seq", seq))
	return nil
}

// End closes any live network session and returns the Session to the
// signed-out state, dropping credentials and the snapshot. It never returns
// an error; teardown failures are logged and swallowed because End is the
// last action before process exit.
func (s *Session) End() {
	s.state = stateEnding
	s.release(false)
	s.signOut()
	s.log.Info("Session ended")
}

// Messages returns the messages of the current snapshot, nil before the
// first successful refresh.
func (s *Session) Messages() []Message {
	if s.snapshot == nil {
		return nil
	}
	return s.snapshot.Messages
}

// MessageCount returns the message count of the current snapshot, zero
// before the first successful refresh.
func (s *Session) MessageCount() int {
	if s.snapshot == nil {
		return 0
	}
	return s.snapshot.Count
}

// Address returns the signed-in mail address, empty when signed out.
func (s *Session) Address() string {
	return s.address
}

// SignedIn reports whether the Session holds an authenticated mailbox.
func (s *Session) SignedIn() bool {
	return s.state == stateSignedIn
}

// Stale reports whether the snapshot counts can no longer be trusted, which
// is the case after a deletion until the next refresh.
func (s *Session) Stale() bool {
	return s.stale
}

// refresh runs one full connect→login→STAT→fetch→logout→disconnect cycle and
// swaps in the new snapshot. On a mid-cycle failure the connection is
// released opportunistically and the primary error is surfaced unchanged.
func (s *Session) refresh(ctx context.Context) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}

	var count int
	var msgs []Message
	err = func() error {
		if err := conn.Login(s.username, s.secret); err != nil {
			return err
		}
		var err error
		if count, err = conn.MessageCount(); err != nil {
			return err
		}
		msgs, err = conn.Messages()
		return err
	}()
	s.release(true)
	if err != nil {
		return err
	}

	if len(msgs) != count {
		s.log.Warn("Server message count disagrees with listing",
			zap.Int("count", count), zap.Int("listed", len(msgs)))
	}

	s.snapshot = &Snapshot{Count: count, Messages: msgs}
	s.stale = false
	s.log.Info("Refreshed mailbox", zap.Int("count", count))
	return nil
}

// connect opens the protocol session for one workflow. The state machine
// allows only one live session per orchestrator.
func (s *Session) connect(ctx context.Context) (Conn, error) {
	if s.conn != nil {
		return nil, ErrSessionBusy
	}
	conn, err := s.transport.Connect(ctx, s.host)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	return conn, nil
}

// release tears down the live protocol session. When quit is true a QUIT is
// attempted first as opportunistic logout. Release failures are logged and
// swallowed so they never mask a workflow's primary error.
func (s *Session) release(quit bool) {
	if s.conn == nil {
		return
	}
	if quit {
		if err := s.conn.Quit(); err != nil {
			s.log.Warn("Cleanup logout failed", zap.Error(err))
		}
	}
	if err := s.conn.Close(); err != nil {
		s.log.Warn("Disconnect failed", zap.Error(err))
	}
	s.conn = nil
}

func (s *Session) signOut() {
	s.address = ""
	s.username = ""
	s.secret = ""
	s.host = ""
	s.snapshot = nil
	s.stale = false
	s.state = stateSignedOut
}
