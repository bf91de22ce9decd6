// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package mirror

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexsync/apexsync/internal/archive"
)

type object struct {
	body        string
	contentType string
}

// fakePutter records uploads and fails the one whose key matches failKey.
type fakePutter struct {
	objects map[string]object
	failKey string
}

func (f *fakePutter) PutObject(_ context.Context, in *s3v2.PutObjectInput, _ ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	if *in.Key == f.failKey {
		return nil, errors.New("access denied")
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string]object{}
	}
	f.objects[*in.Bucket+"/"+*in.Key] = object{body: string(b), contentType: *in.ContentType}
	return &s3v2.PutObjectOutput{}, nil
}

func newStore(t *testing.T) *archive.Store {
	t.Helper()
	stamp := time.UnixMilli(1700000000000)
	s, err := archive.New("/apex", archive.WithFs(afero.NewMemMapFs()), archive.WithClock(func() time.Time { return stamp }))
	require.NoError(t, err)

	for _, v := range []string{"v1", "v2"} {
		_, err := s.WriteCurrent("unpackaged/classes/Foo.cls", []byte(v))
		require.NoError(t, err)
	}
	_, err = s.WriteCurrent("unpackaged/package.xml", []byte("<Package/>"))
	require.NoError(t, err)
	require.NoError(t, s.WriteManifest(archive.Manifest{JobID: "09S1"}))
	return s
}

func TestNew(t *testing.T) {
	_, err := New(&fakePutter{}, "", "x")
	assert.ErrorIs(t, err, ErrNoBucket)

	m, err := New(&fakePutter{}, "bkt", "/snapshots/prod/")
	require.NoError(t, err)
	assert.Equal(t, "snapshots/prod/current/A.cls", m.Key("current/A.cls"))

	m, err = New(&fakePutter{}, "bkt", "")
	require.NoError(t, err)
	assert.Equal(t, "manifest.json", m.Key("manifest.json"))
}

func TestPush(t *testing.T) {
	putter := &fakePutter{}
	m, err := New(putter, "bkt", "prod")
	require.NoError(t, err)

	res, err := m.Push(context.Background(), newStore(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"prod/current/unpackaged/classes/Foo.cls",
		"prod/current/unpackaged/package.xml",
		"prod/previous/unpackaged/classes/Foo_1700000000000.cls",
		"prod/manifest.json",
	}, res.Keys)
	assert.Equal(t, 4, res.Objects)

	assert.Equal(t, "v2", putter.objects["bkt/prod/current/unpackaged/classes/Foo.cls"].body)
	assert.Equal(t, "v1", putter.objects["bkt/prod/previous/unpackaged/classes/Foo_1700000000000.cls"].body)
	assert.Equal(t, "text/plain; charset=utf-8", putter.objects["bkt/prod/current/unpackaged/classes/Foo.cls"].contentType)
	assert.Contains(t, putter.objects["bkt/prod/manifest.json"].body, "09S1")

	var total int64
	for _, o := range putter.objects {
		total += int64(len(o.body))
	}
	assert.Equal(t, total, res.Bytes)
}

func TestPush_StopsOnFailure(t *testing.T) {
	putter := &fakePutter{failKey: "prod/current/unpackaged/package.xml"}
	m, err := New(putter, "bkt", "prod")
	require.NoError(t, err)

	res, err := m.Push(context.Background(), newStore(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://bkt/prod/current/unpackaged/package.xml")
	assert.Equal(t, 1, res.Objects)
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Foo.cls", "text/plain; charset=utf-8"},
		{"T.trigger", "text/plain; charset=utf-8"},
		{"manifest.json", "application/json"},
		{"blob", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentType(tt.name))
		})
	}
}
