// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package session

import (
	"errors"
	"fmt"

	"src.bluestatic.org/popdesk/hostdir"
)

var (
	// ErrNotSignedIn is returned by operations that require an
	// authenticated session.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrSessionBusy is returned when an operation would open a second
	// network session while one is outstanding.
	ErrSessionBusy = errors.New("a network session is already in progress")

	// ErrHostNotFound reports a mail domain with no host directory entry.
	// It is detected locally, before any network activity.
	ErrHostNotFound = hostdir.ErrUnknownDomain
)

// CredentialsFormError reports a syntactically invalid address/secret pair.
// It is detected locally, before any network activity, and is recoverable by
// re-prompting the user.
type CredentialsFormError struct {
	Reason string
}

func (e *CredentialsFormError) Error() string {
	return fmt.Sprintf("malformed credentials: %s", e.Reason)
}
