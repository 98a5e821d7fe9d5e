package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
)

// Payload is a resolved image.
type Payload struct {
	ContentType string
	Data        []byte
}

// Base64 returns the standard base64 encoding of the image bytes.
func (p Payload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// Resolver loads an image by reference.
type Resolver interface {
	ResolveImage(ctx context.Context, ref string) (Payload, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, ref string) (Payload, error)

func (f ResolverFunc) ResolveImage(ctx context.Context, ref string) (Payload, error) {
	return f(ctx, ref)
}

// DefaultMaxBytes caps resolved images.
const DefaultMaxBytes int64 = 5 << 20

const sniffLen = 512

// Option configures a resolver.
type Option func(*options)

type options struct {
	maxBytes int64
}

func defaultOptions() *options {
	return &options{maxBytes: DefaultMaxBytes}
}

// WithMaxBytes caps the size of a resolved image.
// Default: 5 MiB
func WithMaxBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}

// cleanRef validates an image reference: a relative, slash-separated path
// without parent segments.
func cleanRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrEmptyRef
	}
	ref = strings.ReplaceAll(ref, "\\", "/")
	if strings.HasPrefix(ref, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidRef, ref)
	}
	cleaned := path.Clean(ref)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return cleaned, nil
}

func tooLarge(size, limit int64) error {
	return fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(limit)))
}

// newPayload checks that data is an image and determines its content type.
// Sniffed bytes win; the hint (a stored content type) and the file
// extension are fallbacks for formats sniffing cannot see, such as SVG.
func newPayload(ref, hint string, data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, fmt.Errorf("%w: %q", ErrEmpty, ref)
	}

	ct := baseType(http.DetectContentType(data[:min(len(data), sniffLen)]))
	if !strings.HasPrefix(ct, "image/") {
		ct = baseType(hint)
	}
	if !strings.HasPrefix(ct, "image/") {
		ct = baseType(mime.TypeByExtension(path.Ext(ref)))
	}
	if !strings.HasPrefix(ct, "image/") {
		return Payload{}, fmt.Errorf("%w: %q", ErrNotImage, ref)
	}
	return Payload{ContentType: ct, Data: data}, nil
}

func baseType(ct string) string {
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
