// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/apexsync/apexsync/internal/log"
)

// ErrNotConnected is returned when no provider can supply a usable session.
var ErrNotConnected = errors.New("not connected: no session credential available")

// Credential is an authenticated session against one org instance.
type Credential struct {
	Token       string `json:"access_token" yaml:"access_token"`
	InstanceURL string `json:"instance_url" yaml:"instance_url"`
}

// Valid reports whether both the token and the instance URL are present.
func (c Credential) Valid() bool {
	return c.Token != "" && c.InstanceURL != ""
}

// Endpoint joins path onto the instance URL.
func (c Credential) Endpoint(path string) string {
	return strings.TrimRight(c.InstanceURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Host returns the instance URL without its scheme or trailing slash.
func (c Credential) Host() string {
	h := strings.TrimPrefix(strings.TrimPrefix(c.InstanceURL, "https://"), "http://")
	return strings.TrimRight(h, "/")
}

// String renders the credential with the token masked.
func (c Credential) String() string {
	return fmt.Sprintf("%s token=%s", nonEmpty(c.InstanceURL, "<none>"), Mask(c.Token))
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	const visible = 4
	if len(secret) <= 2*visible {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-visible:]
}

// Provider supplies a session credential. Implementations return
// ErrNotConnected when they have nothing to offer.
type Provider interface {
	Credential(ctx context.Context) (Credential, error)
}

// Static always returns the wrapped credential.
type Static Credential

// Credential implements Provider.
func (s Static) Credential(context.Context) (Credential, error) {
	c := Credential(s)
	if !c.Valid() {
		return Credential{}, ErrNotConnected
	}
	return c, nil
}

// Env reads the session from APEXSYNC_ACCESS_TOKEN / SF_ACCESS_TOKEN and
// APEXSYNC_INSTANCE_URL / SF_INSTANCE_URL. InstanceURL is used when neither
// URL variable is set.
type Env struct {
	InstanceURL string
}

// Credential implements Provider.
func (e Env) Credential(context.Context) (Credential, error) {
	c := Credential{
		Token:       firstEnv("APEXSYNC_ACCESS_TOKEN", "SF_ACCESS_TOKEN"),
		InstanceURL: nonEmpty(firstEnv("APEXSYNC_INSTANCE_URL", "SF_INSTANCE_URL"), e.InstanceURL),
	}
	if !c.Valid() {
		return Credential{}, ErrNotConnected
	}
	log.Debugf("credential from environment: %s", c)
	return c, nil
}

// Chain tries each provider in order and returns the first valid credential.
// A provider error other than ErrNotConnected stops the chain.
type Chain []Provider

// Credential implements Provider.
func (ch Chain) Credential(ctx context.Context) (Credential, error) {
	for _, p := range ch {
		c, err := p.Credential(ctx)
		if err == nil && c.Valid() {
			return c, nil
		}
		if err != nil && !errors.Is(err, ErrNotConnected) {
			return Credential{}, err
		}
	}
	return Credential{}, ErrNotConnected
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
