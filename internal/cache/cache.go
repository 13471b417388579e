// Package cache implements jm's on-disk cache tier: a byte-addressed store
// keyed by sanitized package name, backed by internal/storage so it can sit
// on local disk or a shared S3 bucket. Grounded on jm-cache's lib.rs
// Cache/CacheFactory.
package cache

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/jm-dev/jm/internal/storage"
)

// SanitizeName replaces the scope separator so a scoped package name is
// safe as a single path segment, matching jam-common::sanitize_package_name.
func SanitizeName(packageName string) string {
	return strings.ReplaceAll(packageName, "/", "_")
}

// Factory creates named caches (e.g. "metadata", "tarballs") that all share
// a backing Storage, rooted under distinct prefixes. Grounded on
// jam-cache's CacheFactory.
type Factory struct {
	backing storage.Storage
}

// NewFactory constructs a Factory over backing.
func NewFactory(backing storage.Storage) *Factory {
	return &Factory{backing: backing}
}

// Create returns a Cache namespaced under name.
func (f *Factory) Create(name string) *Cache {
	return &Cache{backing: f.backing, prefix: name}
}

// Cache is a single namespaced on-disk cache tier.
type Cache struct {
	backing storage.Storage
	prefix  string
}

func (c *Cache) keyPath(key string) string {
	return path.Join(c.prefix, SanitizeName(key))
}

// Exists reports whether key is already cached.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	_, exists, err := c.backing.Stat(ctx, c.keyPath(key))
	return exists, err
}

// Get returns the cached bytes for key, or ok=false if absent. Intended for
// small documents such as registry metadata.
func (c *Cache) Get(key string) (data []byte, ok bool, err error) {
	ctx := context.Background()
	r, exists, err := c.backing.Read(ctx, c.keyPath(key))
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	defer r.Close()

	data, err = io.ReadAll(r)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set writes value under key and returns the storage key it was written to.
func (c *Cache) Set(key string, value []byte) (string, error) {
	keyPath := c.keyPath(key)
	if err := c.backing.Write(context.Background(), keyPath, bytes.NewReader(value)); err != nil {
		return "", err
	}
	return keyPath, nil
}

// Open streams the cached value for key without buffering it fully in
// memory, for large artifacts such as tarballs.
func (c *Cache) Open(ctx context.Context, key string) (r io.ReadCloser, ok bool, err error) {
	return c.backing.Read(ctx, c.keyPath(key))
}

// Store streams data into the cache under key without buffering it fully in
// memory, returning the storage key it was written to.
func (c *Cache) Store(ctx context.Context, key string, data io.Reader) (string, error) {
	keyPath := c.keyPath(key)
	if err := c.backing.Write(ctx, keyPath, data); err != nil {
		return "", err
	}
	return keyPath, nil
}

// Delete evicts key from the cache, e.g. after a post-write integrity
// check fails.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.backing.Delete(ctx, c.keyPath(key))
}
