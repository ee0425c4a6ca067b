package main

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"sideout/internal/database"
	"sideout/internal/scorebook"
	"sideout/internal/userauth"
	"sideout/internal/webui"
)

type Options struct {
	Addr  string                  `toml:"addr"`
	DB    database.Options        `toml:"db"`
	Users userauth.ManagerOptions `toml:"users"`
	Book  scorebook.Options       `toml:"book"`
	WebUI webui.Options           `toml:"webui"`
}

func (o *Options) FillDefaults() {
	if o.Addr == "" {
		o.Addr = "127.0.0.1:8080"
	}
}

// MixSecrets copies the decoded secret keys into the option fields that are
// deliberately not read from the options file.
func (o *Options) MixSecrets(s *Secrets) error {
	sessionKey, err := hex.DecodeString(s.SessionKey)
	if err != nil {
		return fmt.Errorf("decode session key: %w", err)
	}
	csrfKey, err := hex.DecodeString(s.CSRFKey)
	if err != nil {
		return fmt.Errorf("decode csrf key: %w", err)
	}
	o.WebUI.Session.Key = sessionKey
	o.WebUI.CSRFKey = csrfKey
	return nil
}

type Secrets struct {
	SessionKey string `toml:"session-key"`
	CSRFKey    string `toml:"csrf-key"`
}

func genKey(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := io.ReadFull(crand.Reader, b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateMissing fills empty secrets with fresh random keys and reports
// whether anything changed, so the caller knows to write the file back.
func (s *Secrets) GenerateMissing() (bool, error) {
	changed := false
	if s.SessionKey == "" {
		key, err := genKey(64)
		if err != nil {
			return false, fmt.Errorf("generate session key: %w", err)
		}
		s.SessionKey = key
		changed = true
	}
	if s.CSRFKey == "" {
		key, err := genKey(32)
		if err != nil {
			return false, fmt.Errorf("generate csrf key: %w", err)
		}
		s.CSRFKey = key
		changed = true
	}
	return changed, nil
}
