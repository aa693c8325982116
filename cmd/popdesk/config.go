// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"src.bluestatic.org/popdesk/hostdir"
)

type Config struct {
	// HostsPath is the host directory file, mapping mail domains to POP3
	// server addresses.
	HostsPath string

	// CommandTimeout bounds each protocol round trip. Zero disables the
	// deadline.
	CommandTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		HostsPath:      hostdir.DefaultPath,
		CommandTimeout: 30 * time.Second,
	}
}

func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&config); err != nil {
		return config, err
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	if c.HostsPath == "" {
		return fmt.Errorf("Missing HostsPath")
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("Invalid CommandTimeout: %v", c.CommandTimeout)
	}
	return nil
}
