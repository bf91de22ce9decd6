// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package aws

import (
	"context"
	"path/filepath"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the host's AWS setup out of the test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

// TestOptions verifies each option lands in the options struct.
func TestOptions(t *testing.T) {
	retryer := func() awsv2.Retryer { return retry.NewStandard() }
	o := apply([]Option{
		WithProfile("archive"),
		WithRegion("eu-west-1"),
		WithEndpoint("http://localhost:9000"),
		WithRetryer(retryer),
	})

	assert.Equal(t, "archive", o.profile)
	assert.Equal(t, "eu-west-1", o.region)
	assert.Equal(t, "http://localhost:9000", o.endpoint)
	assert.NotNil(t, o.retryer)

	assert.Equal(t, "b", apply([]Option{WithRegion("a"), WithRegion("b")}).region)
}

func TestLoadAWSConfig_WithRegion(t *testing.T) {
	isolate(t)

	cfg, err := LoadAWSConfig(context.Background(), WithRegion("us-west-2"))
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", cfg.Region)
}

func TestLoadAWSConfig_MissingProfile(t *testing.T) {
	isolate(t)

	_, err := LoadAWSConfig(context.Background(), WithProfile("does-not-exist"))
	assert.Error(t, err)
}

func TestS3Options(t *testing.T) {
	assert.Nil(t, s3Options(options{}))

	var so s3v2.Options
	for _, fn := range s3Options(options{endpoint: "http://localhost:9000"}) {
		fn(&so)
	}
	require.NotNil(t, so.BaseEndpoint)
	assert.Equal(t, "http://localhost:9000", *so.BaseEndpoint)
	assert.True(t, so.UsePathStyle)
}

func TestNewS3(t *testing.T) {
	isolate(t)

	client, err := NewS3(context.Background(), WithRegion("us-east-1"), WithEndpoint("http://localhost:9000"))
	require.NoError(t, err)
	opts := client.Options()
	assert.Equal(t, "us-east-1", opts.Region)
	assert.True(t, opts.UsePathStyle)
}
