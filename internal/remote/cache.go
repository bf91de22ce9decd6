// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"github.com/apexsync/apexsync/internal/cacheutil"
	"github.com/apexsync/apexsync/internal/config"
	"github.com/apexsync/apexsync/internal/credential"
)

// Catalog entries live in a cache directory per instance host, so switching
// orgs never serves another org's classes.

// CacheReader reads the cache entry for the given key, if it exists. If the
// cache is disabled, or the entry does not exist, the second return value will
// be false.
func CacheReader(cred credential.Credential, key string) (*cacheutil.Entry, bool) {
	return cacheutil.Read([]string{cred.Host()}, key)
}

// CacheWriter stores data for key under the instance host.
func CacheWriter(cred credential.Credential, key string, data []byte) error {
	return cacheutil.Write([]string{cred.Host()}, key, data)
}

// PurgeCache removes entries older than cache.clean hours.
func PurgeCache() error {
	cleanHours, _ := config.GetInt("cache.clean")
	return cacheutil.Purge(cleanHours)
}
