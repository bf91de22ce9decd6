// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"

	"github.com/apexsync/apexsync/internal/log"
)

// ErrPassphraseRequired is returned when an encrypted session file is read
// without a passphrase.
var ErrPassphraseRequired = errors.New("session file is encrypted: passphrase required")

const (
	defaultIterations = 210000
	keyLength         = 32
	saltLength        = 16
)

// SessionFile stores a credential on disk. When Passphrase is set the
// credential is sealed with AES-GCM under a PBKDF2-SHA512 derived key.
type SessionFile struct {
	Path       string
	Passphrase string
	// Iterations is the PBKDF2 work factor used by Save. Zero means the
	// default.
	Iterations int
}

type sealedSession struct {
	KDF struct {
		Salt       string `json:"salt"`
		Iterations int    `json:"iterations"`
		HashFunc   string `json:"hash_function"`
		KeyLength  int    `json:"key_length"`
	} `json:"kdf"`
	EncryptedData string `json:"encrypted_data"`
}

// DefaultSessionPath returns <UserConfigDir>/apexsync/session.json.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "apexsync", "session.json"), nil
}

// Credential implements Provider. A missing file yields ErrNotConnected.
func (s SessionFile) Credential(context.Context) (Credential, error) {
	doc, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Credential{}, ErrNotConnected
	}
	if err != nil {
		return Credential{}, fmt.Errorf("failed to read session file: %w", err)
	}

	if s.encrypted(doc) {
		if s.Passphrase == "" {
			return Credential{}, ErrPassphraseRequired
		}
		if doc, err = open(doc, s.Passphrase); err != nil {
			return Credential{}, err
		}
	}

	var c Credential
	if err := json.Unmarshal(doc, &c); err != nil {
		return Credential{}, fmt.Errorf("failed to parse session file: %w", err)
	}
	if !c.Valid() {
		return Credential{}, ErrNotConnected
	}

	log.Debugf("credential from session file %s: %s", s.Path, c)
	return c, nil
}

// Encrypted reports whether the file on disk is sealed.
func (s SessionFile) Encrypted() (bool, error) {
	doc, err := os.ReadFile(s.Path)
	if err != nil {
		return false, err
	}
	return s.encrypted(doc), nil
}

// Save writes c to the session file with owner-only permissions.
func (s SessionFile) Save(c Credential) error {
	doc, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if s.Passphrase != "" {
		iterations := s.Iterations
		if iterations <= 0 {
			iterations = defaultIterations
		}
		if doc, err = seal(doc, s.Passphrase, iterations); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(s.Path, doc, 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear removes the session file. Removing a missing file is not an error.
func (s SessionFile) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s SessionFile) encrypted(doc []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(doc, &probe); err != nil {
		return false
	}
	_, ok := probe["encrypted_data"]
	return ok
}

func seal(plaintext []byte, passphrase string, iterations int) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	aesGCM, err := newGCM(pbkdf2.Key([]byte(passphrase), salt, iterations, keyLength, sha512.New))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	var doc sealedSession
	doc.KDF.Salt = base64.StdEncoding.EncodeToString(salt)
	doc.KDF.Iterations = iterations
	doc.KDF.HashFunc = "sha512"
	doc.KDF.KeyLength = keyLength
	doc.EncryptedData = base64.StdEncoding.EncodeToString(aesGCM.Seal(nonce, nonce, plaintext, nil))

	return json.MarshalIndent(doc, "", "  ")
}

func open(sealed []byte, passphrase string) ([]byte, error) {
	var doc sealedSession
	if err := json.Unmarshal(sealed, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if doc.KDF.HashFunc != "sha512" {
		return nil, fmt.Errorf("unsupported hash function %q", doc.KDF.HashFunc)
	}

	salt, err := base64.StdEncoding.DecodeString(doc.KDF.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(doc.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	aesGCM, err := newGCM(pbkdf2.Key([]byte(passphrase), salt, doc.KDF.Iterations, doc.KDF.KeyLength, sha512.New))
	if err != nil {
		return nil, err
	}

	nonceSize := aesGCM.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf(
			"ciphertext too short: expected at least %d bytes, got %d",
			nonceSize,
			len(ciphertext),
		)
	}

	plaintext, err := aesGCM.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
