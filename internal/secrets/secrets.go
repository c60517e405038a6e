// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: session-key (hex, signs flash cookies).
package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/pdiddy/docxify/internal/logging"
)

// SessionKeyFile names the secret holding the flash-cookie signing key.
const SessionKeyFile = "session-key"

// sessionKeyLen is the size in bytes of a generated signing key.
const sessionKeyLen = 32

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(fs afero.Fs, dir string, logger *log.Logger) (map[string]string, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", "name", name, "err", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// SessionKey returns the flash-cookie signing key from dir. When the
// session-key file is missing or not valid hex of at least 32 bytes, a new
// key is generated and saved so restarts keep issued cookies valid. If the
// key cannot be saved it is still returned and only lives for this process.
func SessionKey(fs afero.Fs, dir string, logger *log.Logger) ([]byte, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	secrets, err := Load(fs, dir, logger)
	if err != nil {
		return nil, err
	}
	if v, ok := secrets[SessionKeyFile]; ok {
		key, err := hex.DecodeString(v)
		if err == nil && len(key) >= sessionKeyLen {
			return key, nil
		}
		logger.Warn("ignoring malformed session key", "path", filepath.Join(dir, SessionKeyFile))
	}

	key := make([]byte, sessionKeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating session key: %w", err)
	}

	path := filepath.Join(dir, SessionKeyFile)
	if err := fs.MkdirAll(dir, 0o700); err == nil {
		err = afero.WriteFile(fs, path, []byte(hex.EncodeToString(key)+"\n"), 0o600)
		if err == nil {
			logger.Info("generated session key", "path", path)
			return key, nil
		}
	}
	logger.Warn("session key not persisted; flash cookies reset on restart", "path", path)
	return key, nil
}
