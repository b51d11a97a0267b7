package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type localStore struct {
	dir     string
	baseURL string
}

// NewLocalStore writes artifacts under dir and serves them at baseURL.
// The directory is created on first use.
func NewLocalStore(dir, baseURL string) Store {
	return &localStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *localStore) Put(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return s.baseURL + "/" + name, nil
}
