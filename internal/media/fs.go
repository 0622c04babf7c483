package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/filex"
)

// FSRepository keeps attachments as files under a root directory. References
// are paths relative to that root.
type FSRepository struct {
	root string
}

func NewFSRepository(root string) (*FSRepository, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &FSRepository{root: abs}, nil
}

func (r *FSRepository) path(ref string) (string, error) {
	if ref == "" || !filepath.IsLocal(ref) {
		return "", fmt.Errorf("%w: media reference %q", common.ErrorInvalidInput, ref)
	}
	return filepath.Join(r.root, ref), nil
}

func (r *FSRepository) Store(ctx context.Context, content io.Reader, suggestedID string) (string, error) {
	ref := objectID(suggestedID)
	dst, err := r.path(ref)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, content); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}

	return ref, nil
}

func (r *FSRepository) Remove(ctx context.Context, ref string) (bool, error) {
	p, err := r.path(ref)
	if err != nil {
		return false, err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}
	return true, nil
}

func (r *FSRepository) Exists(ctx context.Context, ref string) (bool, error) {
	p, err := r.path(ref)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}
}

func (r *FSRepository) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	p, err := r.path(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}
	return f, nil
}
