package registry

import (
	"context"
	"sync/atomic"

	"github.com/kolah/routedoc/internal/model"
)

// File is a manifest registry that can be re-read while in use.
type File struct {
	path     string
	manifest atomic.Pointer[Manifest]
}

var _ Registry = (*File)(nil)

// OpenFile loads the manifest at path.
func OpenFile(path string) (*File, error) {
	f := &File{path: path}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Reload re-reads the manifest. On error the previous manifest stays in use.
func (f *File) Reload() error {
	m, err := LoadManifest(f.path)
	if err != nil {
		return err
	}
	f.manifest.Store(m)
	return nil
}

func (f *File) ListServices(ctx context.Context, withActions, onlyLocal bool) ([]*model.ServiceDescriptor, error) {
	return f.manifest.Load().ListServices(ctx, withActions, onlyLocal)
}

func (f *File) ListAliases(ctx context.Context, service string) ([]model.AliasInfo, error) {
	return f.manifest.Load().ListAliases(ctx, service)
}
