package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/letterpress"
	"github.com/dmitrymomot/letterpress/pkg/compose"
	"github.com/dmitrymomot/letterpress/pkg/filestore"
	"github.com/dmitrymomot/letterpress/pkg/library"
	"github.com/dmitrymomot/letterpress/pkg/logger"
	"github.com/dmitrymomot/letterpress/pkg/sanitizer"
)

// Output formats of the compose command.
const (
	formatPlain   = "plain"
	formatHTML    = "html"
	formatPreview = "preview"
	formatJSON    = "json"
)

type composeFlags struct {
	opening     string
	recipient   string
	body        string
	bodyFile    string
	template    string
	closing     string
	profile     string
	profileFile string
	format      string
}

func composeCmd() *cobra.Command {
	var f composeFlags

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Render a draft to stdout",
		Long: "Render a draft from flags and files. The body comes from --body, --body-file " +
			"(\"-\" reads stdin) or a library --template; the signature from a library " +
			"--profile or a --profile-file in the Signatures JSON format.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}

			log := logger.New(logger.Config{Level: "error", Format: "text"})
			lib := library.New(cfg.LibraryRoot, library.WithLogger(log))
			resolver, err := openImages(cfg, lib, nil)
			if err != nil {
				return err
			}
			// Composing never touches view state or favourites; the file store
			// is only there to satisfy the backend.
			state := filestore.New(lib.Layout().DataDir(), filestore.WithLogger(log))
			svc := letterpress.New(letterpress.NewBackend(state, resolver), letterpress.WithLogger(log))

			return runCompose(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), f, svc, lib)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.opening, "opening", "", "greeting opening, e.g. \"Hello\"")
	fl.StringVar(&f.recipient, "recipient", "", "recipient name")
	fl.StringVar(&f.body, "body", "", "message body")
	fl.StringVar(&f.bodyFile, "body-file", "", "read the body from a file (\"-\" for stdin)")
	fl.StringVar(&f.template, "template", "", "use a library template as the body")
	fl.StringVar(&f.closing, "closing", "", "closing phrase, e.g. \"Thanks\"")
	fl.StringVar(&f.profile, "profile", "", "library profile name")
	fl.StringVar(&f.profileFile, "profile-file", "", "profile JSON file")
	fl.StringVarP(&f.format, "format", "f", formatPlain, "output format: plain, html, preview or json")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file", "template")
	cmd.MarkFlagsMutuallyExclusive("profile", "profile-file")

	return cmd
}

func runCompose(ctx context.Context, stdin io.Reader, out io.Writer, f composeFlags, svc *letterpress.Service, lib *library.Library) error {
	switch f.format {
	case formatPlain, formatHTML, formatPreview, formatJSON:
	default:
		return fmt.Errorf("unknown format %q", f.format)
	}

	body, err := composeBody(ctx, stdin, f, lib)
	if err != nil {
		return err
	}
	profile, err := composeProfile(ctx, f, lib)
	if err != nil {
		return err
	}

	doc := svc.Compose(ctx, letterpress.Draft{
		Profile:   profile,
		Opening:   f.opening,
		Recipient: f.recipient,
		Body:      body,
		Closing:   f.closing,
	})

	switch f.format {
	case formatHTML:
		_, err = io.WriteString(out, doc.HTML+"\n")
	case formatPreview:
		_, err = io.WriteString(out, sanitizer.Preview(doc.HTML)+"\n")
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	default:
		_, err = io.WriteString(out, doc.Plain+"\n")
	}
	return err
}

func composeBody(ctx context.Context, stdin io.Reader, f composeFlags, lib *library.Library) (string, error) {
	switch {
	case f.template != "":
		t, err := lib.Template(ctx, f.template)
		if err != nil {
			return "", err
		}
		return t.Content, nil
	case f.bodyFile == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read body from stdin: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	case f.bodyFile != "":
		data, err := os.ReadFile(f.bodyFile)
		if err != nil {
			return "", fmt.Errorf("read body: %w", err)
		}
		return string(data), nil
	}
	return f.body, nil
}

func composeProfile(ctx context.Context, f composeFlags, lib *library.Library) (*compose.Profile, error) {
	switch {
	case f.profile != "":
		p, err := lib.Profile(ctx, f.profile)
		if err != nil {
			return nil, err
		}
		return p.ToProfile(), nil
	case f.profileFile != "":
		data, err := os.ReadFile(f.profileFile)
		if err != nil {
			return nil, fmt.Errorf("read profile: %w", err)
		}
		var p library.ProfileFile
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", library.ErrInvalidProfile, err)
		}
		return p.ToProfile(), nil
	}
	return nil, nil
}
