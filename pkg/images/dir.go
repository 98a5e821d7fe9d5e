package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// DirResolver reads images from a local directory. References cannot
// escape the directory, including through symlinks.
type DirResolver struct {
	opts *options
	dir  string
}

var _ Resolver = (*DirResolver)(nil)

// NewDirResolver creates a resolver rooted at dir.
func NewDirResolver(dir string, opts ...Option) *DirResolver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &DirResolver{dir: dir, opts: o}
}

// ResolveImage implements Resolver.
func (r *DirResolver) ResolveImage(ctx context.Context, ref string) (Payload, error) {
	name, err := cleanRef(ref)
	if err != nil {
		return Payload{}, err
	}
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}

	root, err := os.OpenRoot(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Payload{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
		}
		return Payload{}, errors.Join(ErrReadFailed, err)
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Payload{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
		}
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Payload{}, errors.Join(ErrReadFailed, err)
	}
	if info.IsDir() {
		return Payload{}, fmt.Errorf("%w: %q is a directory", ErrInvalidRef, ref)
	}
	if info.Size() > r.opts.maxBytes {
		return Payload{}, tooLarge(info.Size(), r.opts.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(f, r.opts.maxBytes+1))
	if err != nil {
		return Payload{}, errors.Join(ErrReadFailed, err)
	}
	if int64(len(data)) > r.opts.maxBytes {
		return Payload{}, tooLarge(int64(len(data)), r.opts.maxBytes)
	}

	return newPayload(name, "", data)
}
