// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package hostdir

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	d, err := Read(strings.NewReader(`{"example.com": "pop.example.com", "test.net": "mail.test.net:1100"}`))
	if err != nil {
		t.Fatal(err)
	}

	if want, got := 2, d.Len(); want != got {
		t.Errorf("Expected %d entries, got %d", want, got)
	}

	addr, err := d.Resolve("example.com")
	if err != nil {
		t.Errorf("Resolve: %v", err)
	}
	if want := "pop.example.com"; addr != want {
		t.Errorf("Expected %q, got %q", want, addr)
	}

	_, err = d.Resolve("absent.org")
	if !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("Expected ErrUnknownDomain, got %v", err)
	}

	// Exact match only: no suffix or case folding.
	_, err = d.Resolve("Example.com")
	if !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("Expected ErrUnknownDomain for case mismatch, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.json")
	if err := os.WriteFile(path, []byte(`{"example.com": "pop.example.com"}`), 0600); err != nil {
		t.Fatal(err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Resolve("example.com"); err != nil {
		t.Errorf("Resolve: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err == nil {
		t.Errorf("Expected error for missing directory file")
	}
}

func TestLoadMalformed(t *testing.T) {
	_, err := Read(strings.NewReader(`{"example.com": 42}`))
	if err == nil {
		t.Errorf("Expected error for malformed directory")
	}
}
