package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// LocalAvatarStore writes avatars into a directory that the HTTP server serves statically.
type LocalAvatarStore struct {
	dir          string
	publicPrefix string
}

func NewLocalAvatarStore(dir, publicPrefix string) (*LocalAvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar directory: %w", err)
	}
	return &LocalAvatarStore{
		dir:          dir,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
	}, nil
}

func (s *LocalAvatarStore) Dir() string {
	return s.dir
}

func (s *LocalAvatarStore) PublicPrefix() string {
	return s.publicPrefix
}

func (s *LocalAvatarStore) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := filepath.Base(key)
	target := filepath.Join(s.dir, name)

	// write to a temp file first so a failed upload never leaves a half-written avatar
	tmp, err := os.CreateTemp(s.dir, "tmp_*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write avatar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close avatar: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("move avatar into place: %w", err)
	}

	log.Debug("stored avatar", "path", target, "bytes", len(data))
	return path.Join(s.publicPrefix, name), nil
}
