package heightmap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	getter "github.com/hashicorp/go-getter"
)

// ErrEmptyName is returned when resolving an empty map name.
var ErrEmptyName = errors.New("empty map name")

// Resolver maps map names to files. Plain names live in MapDir as <name>.hm.
// URLs and go-getter sources (https://..., s3::..., git::...) are downloaded
// once into CacheDir.
type Resolver struct {
	MapDir   string
	CacheDir string
}

// NewResolver creates a resolver. An empty cacheDir caches under mapDir/.cache.
func NewResolver(mapDir, cacheDir string) *Resolver {
	if cacheDir == "" {
		cacheDir = filepath.Join(mapDir, ".cache")
	}
	return &Resolver{MapDir: mapDir, CacheDir: cacheDir}
}

// IsRemote reports whether name is a download source rather than a local map name.
func IsRemote(name string) bool {
	return strings.Contains(name, "://") || strings.Contains(name, "::")
}

// Path returns the local file for a plain map name without touching the filesystem.
func (r *Resolver) Path(name string) string {
	if !strings.HasSuffix(name, Ext) {
		name += Ext
	}
	return filepath.Join(r.MapDir, name)
}

// Resolve returns a local file path for name, downloading remote sources on first use.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}
	if !IsRemote(name) {
		return r.Path(name), nil
	}

	dst := r.cachePath(name)
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}
	if err := os.MkdirAll(r.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create map cache: %w", err)
	}

	client := &getter.Client{
		Ctx:  ctx,
		Src:  name,
		Dst:  dst,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("fetch map %s: %w", name, err)
	}
	return dst, nil
}

// cachePath derives a stable file name for a remote source.
func (r *Resolver) cachePath(src string) string {
	sum := sha256.Sum256([]byte(src))
	return filepath.Join(r.CacheDir, hex.EncodeToString(sum[:8])+Ext)
}

// List returns the names of the maps stored in MapDir, sorted.
func (r *Resolver) List() ([]string, error) {
	entries, err := os.ReadDir(r.MapDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list maps: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Ext {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), Ext))
	}
	sort.Strings(names)
	return names, nil
}
