package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/docchat/internal/extract"
	"github.com/xxxsen/docchat/internal/model"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
)

type localConfig struct {
	Dir string `json:"dir"`
}

// localSource serves documents from a directory on disk, mainly for
// development and tests.
type localSource struct {
	dir string
}

func init() {
	Register("local", createLocalSource)
}

func createLocalSource(args interface{}) (Source, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("local source dir is required")
	}
	return &localSource{dir: cfg.Dir}, nil
}

func (s *localSource) List(ctx context.Context) ([]model.DocumentRef, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read dir: %v", apperrors.ErrSourceUnavailable, err)
	}
	var refs []model.DocumentRef
	for _, entry := range entries {
		if entry.IsDir() || !extract.Supported(entry.Name()) {
			continue
		}
		refs = append(refs, model.DocumentRef{ID: entry.Name(), Name: entry.Name()})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (s *localSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	if strings.Contains(id, "..") || strings.ContainsRune(id, os.PathSeparator) {
		return nil, fmt.Errorf("%w: invalid document id: %s", apperrors.ErrNotFound, id)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: read file: %v", apperrors.ErrSourceUnavailable, err)
	}
	return data, nil
}
