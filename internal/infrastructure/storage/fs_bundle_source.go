// Package storage provides the sources template bundles are read from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	appprov "github.com/erp/provisioner/internal/application/provisioning"
	"github.com/erp/provisioner/templates"
)

// FSBundleSource reads bundles from any fs.FS, walking root recursively.
type FSBundleSource struct {
	fsys fs.FS
	root string
}

// NewFSBundleSource creates a source over fsys rooted at root
func NewFSBundleSource(fsys fs.FS, root string) *FSBundleSource {
	if root == "" {
		root = "."
	}
	return &FSBundleSource{fsys: fsys, root: path.Clean(root)}
}

// NewDirBundleSource reads bundles from a directory on disk
func NewDirBundleSource(dir string) *FSBundleSource {
	return NewFSBundleSource(os.DirFS(dir), ".")
}

// NewEmbeddedBundleSource reads the bundles compiled into the binary
func NewEmbeddedBundleSource() *FSBundleSource {
	return NewFSBundleSource(templates.FS, ".")
}

// List returns the *.json files below root as slash-separated paths relative
// to root. A missing root yields an empty list.
func (s *FSBundleSource) List(ctx context.Context) ([]string, error) {
	var names []string
	err := fs.WalkDir(s.fsys, s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".json") {
			return nil
		}
		names = append(names, s.relative(p))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Open opens one bundle by the name List returned
func (s *FSBundleSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("invalid bundle name %q", name)
	}
	f, err := s.fsys.Open(path.Join(s.root, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle %s: %w", name, err)
	}
	return f, nil
}

func (s *FSBundleSource) relative(p string) string {
	if s.root == "." {
		return p
	}
	return strings.TrimPrefix(p, s.root+"/")
}

// Ensure FSBundleSource implements BundleSource
var _ appprov.BundleSource = (*FSBundleSource)(nil)
