// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package credential

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCred = Credential{Token: "00Dxx0000000001!AQ4AQFakeToken", InstanceURL: "https://acme.my.salesforce.com"}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"APEXSYNC_ACCESS_TOKEN", "SF_ACCESS_TOKEN", "APEXSYNC_INSTANCE_URL", "SF_INSTANCE_URL"} {
		t.Setenv(k, "")
	}
}

func TestCredential_Helpers(t *testing.T) {
	assert.True(t, testCred.Valid())
	assert.False(t, Credential{Token: "x"}.Valid())
	assert.False(t, Credential{InstanceURL: "https://x"}.Valid())

	c := Credential{Token: "t", InstanceURL: "https://acme.my.salesforce.com/"}
	assert.Equal(t, "https://acme.my.salesforce.com/services/data/v58.0/", c.Endpoint("/services/data/v58.0/"))
	assert.Equal(t, "acme.my.salesforce.com", c.Host())
}

func TestCredential_StringMasksToken(t *testing.T) {
	s := testCred.String()
	assert.NotContains(t, s, "FakeToken")
	assert.True(t, strings.HasSuffix(s, "oken"))
	assert.Contains(t, s, "https://acme.my.salesforce.com")
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcdefgh", "********"},
		{"abcdefghijk", "********hijk"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.in))
		})
	}
}

func TestStatic(t *testing.T) {
	c, err := Static(testCred).Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testCred, c)

	_, err = Static{}.Credential(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestEnv(t *testing.T) {
	clearEnv(t)

	_, err := Env{}.Credential(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)

	t.Setenv("SF_ACCESS_TOKEN", "sf-token")
	c, err := Env{InstanceURL: "https://fallback.my.salesforce.com"}.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sf-token", c.Token)
	assert.Equal(t, "https://fallback.my.salesforce.com", c.InstanceURL)

	t.Setenv("APEXSYNC_ACCESS_TOKEN", "own-token")
	t.Setenv("APEXSYNC_INSTANCE_URL", "https://env.my.salesforce.com")
	c, err = Env{InstanceURL: "https://fallback.my.salesforce.com"}.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "own-token", c.Token)
	assert.Equal(t, "https://env.my.salesforce.com", c.InstanceURL)
}

type errProvider struct{ err error }

func (p errProvider) Credential(context.Context) (Credential, error) { return Credential{}, p.err }

func TestChain(t *testing.T) {
	ctx := context.Background()

	c, err := Chain{Static{}, Static(testCred)}.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, testCred, c)

	_, err = Chain{Static{}, errProvider{ErrNotConnected}}.Credential(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)

	boom := errors.New("boom")
	_, err = Chain{errProvider{boom}, Static(testCred)}.Credential(ctx)
	assert.ErrorIs(t, err, boom)

	_, err = Chain{}.Credential(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSessionFile_Plain(t *testing.T) {
	sf := SessionFile{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	_, err := sf.Credential(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, sf.Save(testCred))

	info, err := os.Stat(sf.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	enc, err := sf.Encrypted()
	require.NoError(t, err)
	assert.False(t, enc)

	c, err := sf.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testCred, c)

	require.NoError(t, sf.Clear())
	require.NoError(t, sf.Clear())
	_, err = sf.Credential(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSessionFile_Encrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	sf := SessionFile{Path: path, Passphrase: "correct horse", Iterations: 1000}
	require.NoError(t, sf.Save(testCred))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), testCred.Token)
	assert.Contains(t, string(raw), "encrypted_data")

	enc, err := sf.Encrypted()
	require.NoError(t, err)
	assert.True(t, enc)

	c, err := sf.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testCred, c)

	_, err = SessionFile{Path: path}.Credential(context.Background())
	assert.ErrorIs(t, err, ErrPassphraseRequired)

	_, err = SessionFile{Path: path, Passphrase: "wrong"}.Credential(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decrypt")
}

func TestSessionFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := SessionFile{Path: path}.Credential(context.Background())
	assert.ErrorContains(t, err, "failed to parse")

	require.NoError(t, os.WriteFile(path, []byte(`{"instance_url":"https://x"}`), 0o600))
	_, err = SessionFile{Path: path}.Credential(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestPrompter(t *testing.T) {
	var out strings.Builder
	p := &Prompter{In: strings.NewReader("https://acme.my.salesforce.com\n  s3cret  \n"), Out: &out}

	url, err := p.Line("Instance URL: ")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.my.salesforce.com", url)

	secret, err := p.Secret("Access token: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)

	assert.Equal(t, "Instance URL: Access token: ", out.String())

	_, err = p.Line("More: ")
	assert.Error(t, err)
}

func TestPrompter_LastLineWithoutNewline(t *testing.T) {
	p := &Prompter{In: strings.NewReader("token"), Out: &strings.Builder{}}

	s, err := p.Secret("> ")
	require.NoError(t, err)
	assert.Equal(t, "token", s)
}
