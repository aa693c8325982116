// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package session

// Snapshot is the client's view of the mailbox as of the last successful
// refresh: the message count reported by the server and the messages in
// server order. A snapshot is never mutated; a refresh builds a new one and
// swaps it in whole, so a partially failed refresh leaves the previous
// snapshot intact.
type Snapshot struct {
	Count    int
	Messages []Message
}
