// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// Package hostdir maps mail domains to POP3 server addresses. The directory
// is loaded once at startup and is read-only afterwards.
package hostdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultPath is where the directory is looked for, relative to the running
// program.
const DefaultPath = "./hosts.json"

// ErrUnknownDomain is returned by Resolve for a domain with no directory
// entry.
var ErrUnknownDomain = errors.New("no server address for domain")

// Directory is an immutable domain → server address table.
type Directory struct {
	hosts map[string]string
}

// Load reads the directory from a JSON file containing a single object of
// domain to server address entries. A missing or malformed file is an error;
// callers treat it as fatal since no session can be served without the
// directory.
func Load(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to open host directory: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a directory from r.
func Read(r io.Reader) (*Directory, error) {
	hosts := make(map[string]string)
	if err := json.NewDecoder(r).Decode(&hosts); err != nil {
		return nil, fmt.Errorf("Failed to parse host directory: %w", err)
	}
	return &Directory{hosts: hosts}, nil
}

// Resolve returns the server address for a mail domain. The match is an
// exact string comparison; absence is an error wrapping ErrUnknownDomain,
// never a default.
func (d *Directory) Resolve(domain string) (string, error) {
	addr, found := d.hosts[domain]
	if !found {
		return "", fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
	return addr, nil
}

// Len reports the number of directory entries.
func (d *Directory) Len() int {
	return len(d.hosts)
}
