package library

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Layout locates the library directories below a root directory:
//
//	<root>/data                 phrases, locations, favourites, view state
//	<root>/Templates/*.txt      message templates
//	<root>/Signatures/*.json    profiles
//	<root>/Signatures/images    profile images
type Layout struct {
	Root string
}

func (l Layout) DataDir() string       { return filepath.Join(l.Root, "data") }
func (l Layout) TemplatesDir() string  { return filepath.Join(l.Root, "Templates") }
func (l Layout) SignaturesDir() string { return filepath.Join(l.Root, "Signatures") }
func (l Layout) ImagesDir() string     { return filepath.Join(l.SignaturesDir(), "images") }

// EnsureDirs creates every library directory that does not exist yet.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.DataDir(), l.TemplatesDir(), l.SignaturesDir(), l.ImagesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Join(ErrStorage, err)
		}
	}
	return nil
}

const invalidFilenameChars = `/\:*?"<>|`

// SanitizeFilename replaces characters that are not allowed in file names
// with underscores after trimming surrounding space. A blank name becomes
// "Untitled".
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidFilenameChars, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "Untitled"
	}
	return name
}
