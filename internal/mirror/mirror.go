// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"path"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/apexsync/apexsync/internal/archive"
	"github.com/apexsync/apexsync/internal/log"
)

// ErrNoBucket is returned when no bucket is configured.
var ErrNoBucket = errors.New("no mirror bucket configured")

// ObjectPutter is the part of the S3 client the mirror uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
}

// Result describes a push.
type Result struct {
	Bucket  string   `json:"bucket" yaml:"bucket"`
	Prefix  string   `json:"prefix" yaml:"prefix"`
	Objects int      `json:"objects" yaml:"objects"`
	Bytes   int64    `json:"bytes" yaml:"bytes"`
	Keys    []string `json:"keys" yaml:"keys"`
}

// Mirror uploads a Store to one bucket and prefix.
type Mirror struct {
	client ObjectPutter
	bucket string
	prefix string
}

// New returns a Mirror. The prefix is trimmed of slashes.
func New(client ObjectPutter, bucket, prefix string) (*Mirror, error) {
	if bucket == "" {
		return nil, ErrNoBucket
	}
	return &Mirror{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// Key returns the object key for a path relative to the store root.
func (m *Mirror) Key(rel string) string {
	if m.prefix == "" {
		return rel
	}
	return m.prefix + "/" + rel
}

// Push uploads every file in current/ and previous/ plus any manifests. It
// stops at the first failed upload.
func (m *Mirror) Push(ctx context.Context, store *archive.Store) (Result, error) {
	res := Result{Bucket: m.bucket, Prefix: m.prefix}

	for _, tree := range []string{archive.CurrentDir, archive.PreviousDir} {
		files, err := store.List(tree)
		if err != nil {
			return res, err
		}
		for _, rel := range files {
			body, err := store.ReadFile(tree, rel)
			if err != nil {
				return res, fmt.Errorf("failed to read %s/%s: %w", tree, rel, err)
			}
			if err := m.put(ctx, path.Join(tree, rel), body, &res); err != nil {
				return res, err
			}
		}
	}

	for _, name := range []string{archive.ManifestFile, archive.PreviousManifestFile} {
		body, err := store.ReadRoot(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := m.put(ctx, name, body, &res); err != nil {
			return res, err
		}
	}

	log.Infof("mirrored %d objects to s3://%s/%s", res.Objects, m.bucket, m.prefix)
	return res, nil
}

func (m *Mirror) put(ctx context.Context, rel string, body []byte, res *Result) error {
	key := m.Key(rel)
	_, err := m.client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:        awsv2.String(m.bucket),
		Key:           awsv2.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: awsv2.Int64(int64(len(body))),
		ContentType:   awsv2.String(contentType(rel)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", m.bucket, key, err)
	}

	log.Tracef("uploaded %s (%d bytes)", key, len(body))
	res.Objects++
	res.Bytes += int64(len(body))
	res.Keys = append(res.Keys, key)
	return nil
}

// contentType maps artifact extensions to a MIME type. Apex sources are
// plain text.
func contentType(name string) string {
	switch ext := path.Ext(name); ext {
	case ".cls", ".trigger":
		return "text/plain; charset=utf-8"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}
	return "application/octet-stream"
}
