package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dmitrymomot/letterpress/internal/atomicfile"
	"github.com/dmitrymomot/letterpress/pkg/logger"
)

// Default phrase lists used when the data files are missing or unreadable.
var (
	DefaultOpenings = []string{"Hello", "Hi", "Good morning"}
	DefaultClosings = []string{"Thanks", "Sincerely", "Kind regards"}
)

const (
	openingsFile  = "salutations.json"
	closingsFile  = "valedictions.json"
	locationsFile = "locations.json"
)

// Library reads and writes the user's templates, profiles and phrase lists.
type Library struct {
	logger *slog.Logger
	layout Layout
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(lib *Library) {
		if l != nil {
			lib.logger = l
		}
	}
}

// New opens the library rooted at root. Directories are created lazily on
// first write; call Layout().EnsureDirs to create them upfront.
func New(root string, opts ...Option) *Library {
	lib := &Library{
		layout: Layout{Root: root},
		logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(lib)
	}
	lib.logger = lib.logger.With(logger.Component("library"))
	return lib
}

// Layout returns the directory layout.
func (l *Library) Layout() Layout {
	return l.layout
}

// Templates lists every *.txt template. A template with malformed
// frontmatter is returned with its whole file as content.
func (l *Library) Templates(ctx context.Context) ([]Template, error) {
	entries, err := os.ReadDir(l.layout.TemplatesDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Template{}, nil
		}
		return nil, errors.Join(ErrStorage, err)
	}

	out := make([]Template, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		t, err := l.readTemplate(ctx, strings.TrimSuffix(e.Name(), ".txt"))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Template loads one template by name.
func (l *Library) Template(ctx context.Context, name string) (Template, error) {
	return l.readTemplate(ctx, SanitizeFilename(name))
}

func (l *Library) readTemplate(ctx context.Context, name string) (Template, error) {
	path := filepath.Join(l.layout.TemplatesDir(), name+".txt")

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
		}
		return Template{}, errors.Join(ErrStorage, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Template{}, errors.Join(ErrStorage, err)
	}

	fm, body, err := ParseTemplate(raw)
	if err != nil {
		l.logger.WarnContext(ctx, "template frontmatter ignored",
			slog.String("template", name),
			logger.Error(err),
		)
		fm, body = Frontmatter{}, string(raw)
	}

	return Template{
		Name:         name,
		Subject:      fm.Subject,
		Content:      body,
		LastModified: info.ModTime(),
	}, nil
}

// SaveTemplate writes t under its sanitized name and returns the stored
// template.
func (l *Library) SaveTemplate(ctx context.Context, t Template) (Template, error) {
	t.Name = SanitizeFilename(t.Name)

	data, err := RenderTemplate(Frontmatter{Subject: t.Subject}, t.Content)
	if err != nil {
		return Template{}, err
	}
	if err := atomicfile.Write(filepath.Join(l.layout.TemplatesDir(), t.Name+".txt"), data); err != nil {
		return Template{}, errors.Join(ErrStorage, err)
	}

	l.logger.InfoContext(ctx, "template saved", slog.String("template", t.Name))
	return l.readTemplate(ctx, t.Name)
}

// Profiles lists profile names in sorted order.
func (l *Library) Profiles(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.layout.SignaturesDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, errors.Join(ErrStorage, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	slices.Sort(names)
	return names, nil
}

// Profile loads one profile by name.
func (l *Library) Profile(_ context.Context, name string) (ProfileFile, error) {
	name = SanitizeFilename(name)

	raw, err := os.ReadFile(l.profilePath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ProfileFile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
		}
		return ProfileFile{}, errors.Join(ErrStorage, err)
	}

	var p ProfileFile
	if err := json.Unmarshal(raw, &p); err != nil {
		return ProfileFile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if p.SignatureName == "" {
		p.SignatureName = name
	}
	return p, nil
}

// SaveProfile writes p as Signatures/<signature_name>.json.
func (l *Library) SaveProfile(ctx context.Context, p ProfileFile) (ProfileFile, error) {
	if err := p.Validate(); err != nil {
		return ProfileFile{}, err
	}
	p.SignatureName = SanitizeFilename(p.SignatureName)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return ProfileFile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := atomicfile.Write(l.profilePath(p.SignatureName), data); err != nil {
		return ProfileFile{}, errors.Join(ErrStorage, err)
	}

	l.logger.InfoContext(ctx, "profile saved", slog.String("profile", p.SignatureName))
	return p, nil
}

// DeleteProfile removes a profile. Deleting a missing profile is not an
// error.
func (l *Library) DeleteProfile(ctx context.Context, name string) error {
	name = SanitizeFilename(name)
	if err := os.Remove(l.profilePath(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(ErrStorage, err)
	}
	l.logger.InfoContext(ctx, "profile deleted", slog.String("profile", name))
	return nil
}

func (l *Library) profilePath(name string) string {
	return filepath.Join(l.layout.SignaturesDir(), name+".json")
}

// Openings returns the greeting openings, or DefaultOpenings when none are
// stored.
func (l *Library) Openings(ctx context.Context) []string {
	return l.phrases(ctx, openingsFile, DefaultOpenings)
}

// Closings returns the closing phrases, or DefaultClosings when none are
// stored.
func (l *Library) Closings(ctx context.Context) []string {
	return l.phrases(ctx, closingsFile, DefaultClosings)
}

func (l *Library) phrases(ctx context.Context, file string, fallback []string) []string {
	list, err := l.readStringList(file)
	if err != nil {
		l.logger.WarnContext(ctx, "using default phrases",
			slog.String("file", file),
			logger.Error(err),
		)
		return slices.Clone(fallback)
	}
	if len(list) == 0 {
		return slices.Clone(fallback)
	}
	return list
}

// readStringList reads a JSON array and keeps its string elements.
// A missing file is an empty list.
func (l *Library) readStringList(file string) ([]string, error) {
	raw, err := os.ReadFile(filepath.Join(l.layout.DataDir(), file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

// Locations returns the stored location name to address map. A missing
// file is an empty map.
func (l *Library) Locations(_ context.Context) (map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(l.layout.DataDir(), locationsFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, errors.Join(ErrStorage, err)
	}

	locations := map[string]string{}
	if err := json.Unmarshal(raw, &locations); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return locations, nil
}
