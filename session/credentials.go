// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package session

import "strings"

// parseCredentials checks the form of an address/secret pair and splits the
// address into its local part and domain. The checks are purely syntactic;
// whether the mailbox exists is for the server to decide.
func parseCredentials(address, secret string) (local, domain string, err error) {
	at := strings.IndexByte(address, '@')
	if at < 0 || strings.IndexByte(address[at+1:], '@') >= 0 {
		return "", "", &CredentialsFormError{Reason: "address must contain exactly one '@'"}
	}
	local, domain = address[:at], address[at+1:]
	if local == "" {
		return "", "", &CredentialsFormError{Reason: "address has an empty local part"}
	}
	if domain == "" {
		return "", "", &CredentialsFormError{Reason: "address has an empty domain"}
	}
	if secret == "" {
		return "", "", &CredentialsFormError{Reason: "password is empty"}
	}
	return local, domain, nil
}
