package library

import "errors"

var (
	ErrTemplateNotFound   = errors.New("library: template not found")
	ErrProfileNotFound    = errors.New("library: profile not found")
	ErrInvalidFrontmatter = errors.New("library: invalid frontmatter")
	ErrInvalidProfile     = errors.New("library: invalid profile")
	ErrStorage            = errors.New("library: storage failure")
)
