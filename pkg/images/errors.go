package images

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrEmptyRef      = errors.New("images: empty reference")
	ErrInvalidRef    = errors.New("images: invalid reference")
	ErrNotFound      = errors.New("images: not found")
	ErrAccessDenied  = errors.New("images: access denied")
	ErrEmpty         = errors.New("images: empty file")
	ErrNotImage      = errors.New("images: not an image")
	ErrTooLarge      = errors.New("images: image too large")
	ErrReadFailed    = errors.New("images: read failed")
	ErrInvalidConfig = errors.New("images: invalid configuration")
)

// wrapS3Error maps S3 failures onto the package's sentinel errors.
// The S3 error is kept as text only.
func wrapS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", ErrReadFailed, err)
}
