// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/apexsync/apexsync/internal/log"
)

// options holds optional overrides for AWS config loading and the S3 client.
type options struct {
	profile  string
	region   string
	endpoint string
	retryer  func() awsv2.Retryer
}

// Option customizes how the mirror's AWS access is set up. With no options
// the shell's AWS setup is inherited (AWS_PROFILE, shared config, env, IMDS).
type Option func(*options)

// WithProfile sets the shared config profile.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion sets the region override.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint points the S3 client at an S3 compatible endpoint, addressed
// path style.
func WithEndpoint(url string) Option {
	return func(o *options) { o.endpoint = url }
}

// WithRetryer injects a custom retryer; if not set, SDK defaults are used.
func WithRetryer(newRetryer func() awsv2.Retryer) Option {
	return func(o *options) { o.retryer = newRetryer }
}

func apply(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// LoadAWSConfig loads AWS SDK v2 config with the options applied.
func LoadAWSConfig(ctx context.Context, opts ...Option) (awsv2.Config, error) {
	o := apply(opts)
	log.Debugf("aws config: profile=%s region=%s", o.profile, o.region)
	return loadConfig(ctx, o)
}

func loadConfig(ctx context.Context, o options) (awsv2.Config, error) {
	var loadOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	if o.retryer != nil {
		loadOpts = append(loadOpts, config.WithRetryer(o.retryer))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.Debugf("aws config load failed: %v", err)
		return awsv2.Config{}, err
	}
	return cfg, nil
}

// NewS3 loads config and returns an S3 client for the mirror.
func NewS3(ctx context.Context, opts ...Option) (*s3v2.Client, error) {
	o := apply(opts)
	cfg, err := loadConfig(ctx, o)
	if err != nil {
		return nil, err
	}

	client := s3v2.NewFromConfig(cfg, s3Options(o)...)
	log.Debugf("s3 client created: region=%s endpoint=%s", cfg.Region, o.endpoint)
	return client, nil
}

func s3Options(o options) []func(*s3v2.Options) {
	if o.endpoint == "" {
		return nil
	}
	return []func(*s3v2.Options){
		func(so *s3v2.Options) {
			so.BaseEndpoint = awsv2.String(o.endpoint)
			so.UsePathStyle = true
		},
	}
}
