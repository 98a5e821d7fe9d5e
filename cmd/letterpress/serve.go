package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/letterpress"
	"github.com/dmitrymomot/letterpress/handlers"
	"github.com/dmitrymomot/letterpress/internal"
	"github.com/dmitrymomot/letterpress/middlewares"
	"github.com/dmitrymomot/letterpress/pkg/health"
	"github.com/dmitrymomot/letterpress/pkg/library"
	"github.com/dmitrymomot/letterpress/pkg/logger"
	"github.com/dmitrymomot/letterpress/pkg/mailer"
	"github.com/dmitrymomot/letterpress/pkg/mailer/resend"
	"github.com/dmitrymomot/letterpress/pkg/metrics"
	"github.com/dmitrymomot/letterpress/pkg/notify"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func serve(ctx context.Context, cfg Config) error {
	log := logger.New(cfg.Logger, middlewares.RequestIDExtractor())
	slog.SetDefault(log)

	lib := library.New(cfg.LibraryRoot, library.WithLogger(log))
	if err := lib.Layout().EnsureDirs(); err != nil {
		return err
	}

	state, err := openState(ctx, cfg, lib, log)
	if err != nil {
		log.ErrorContext(ctx, "failed to open state backend", slog.String("backend", cfg.Backend), logger.Error(err))
		return err
	}

	rec := metrics.New()
	resolver, err := openImages(cfg, lib, rec)
	if err != nil {
		state.close(ctx)
		return err
	}

	center := notify.NewCenter(notify.WithLifetime(cfg.NoticeLifetime))

	svcOpts := []letterpress.Option{
		letterpress.WithLogger(log),
		letterpress.WithNotifier(center),
		letterpress.WithMetrics(rec),
		letterpress.WithQuietPeriod(cfg.QuietPeriod),
	}
	if cfg.CoalesceViewState {
		svcOpts = append(svcOpts, letterpress.WithCoalescedViewState())
	}
	svc := letterpress.New(letterpress.NewBackend(state.store, resolver), svcOpts...)

	m, err := newMailer(cfg, log)
	if err != nil {
		state.close(ctx)
		return err
	}

	checks := health.Checks{"library": health.DirWritable(lib.Layout().DataDir())}
	for name, check := range state.checks {
		checks[name] = check
	}

	app := internal.New(
		internal.WithLogger(log),
		internal.WithErrorHandler(internal.JSONErrorHandler(middlewares.GetRequestID)),
		internal.WithMiddleware(
			middlewares.RequestID(),
			middlewares.AccessLog(middlewares.WithAccessLogSkip("/health/live", "/health/ready", "/metrics")),
			middlewares.Recover(),
			middlewares.CORS(middlewares.WithAllowOrigins(cfg.CORSOrigins...)),
		),
		internal.WithHealthChecks(checks, health.WithLogger(log)),
		internal.WithMount("/metrics", rec.Handler()),
		internal.WithHandlers(
			handlers.NewComposeHandler(svc, lib, m,
				handlers.WithSendLimit(rate.Limit(cfg.SendRate), cfg.SendBurst),
			),
			handlers.NewFavouritesHandler(svc),
			handlers.NewViewStateHandler(svc),
			handlers.NewLibraryHandler(svc, lib),
			handlers.NewNoticesHandler(center),
		),
	)

	runOpts := []internal.RunOption{
		internal.ShutdownTimeout(cfg.ShutdownTimeout),
		internal.StartupHook(svc.Start),
		internal.ShutdownHook(svc.Close),
	}
	for _, fn := range state.shutdown {
		runOpts = append(runOpts, internal.ShutdownHook(fn))
	}
	runOpts = append(runOpts, internal.ShutdownHook(logger.SentryFlush(cfg.SentryFlushTimeout)))

	log.InfoContext(ctx, "starting letterpress",
		slog.String("addr", cfg.HTTPAddr),
		slog.String("backend", cfg.Backend),
		slog.String("images", cfg.ImageSource),
		slog.String("library", cfg.LibraryRoot),
	)
	return app.Run(ctx, cfg.HTTPAddr, runOpts...)
}

// newMailer delivers through Resend when it is configured and logs messages
// otherwise.
func newMailer(cfg Config, log *slog.Logger) (*mailer.Mailer, error) {
	if !cfg.Resend.Enabled() {
		log.Warn("RESEND_API_KEY not set, outgoing mail is only logged")
		return mailer.New(mailer.LogSender(log), cfg.Mailer, mailer.WithLogger(log)), nil
	}
	sender, err := resend.New(cfg.Resend)
	if err != nil {
		return nil, err
	}
	return mailer.New(sender, cfg.Mailer, mailer.WithLogger(log)), nil
}
