package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"platewatch/internal/config"
	"platewatch/internal/infrastructure/deploy"
	"platewatch/internal/infrastructure/notify"
	"platewatch/internal/infrastructure/resolver"
	"platewatch/internal/infrastructure/source"
	"platewatch/internal/logging"
	"platewatch/internal/ports"
	"platewatch/internal/scanner"
	"platewatch/internal/storage"
	"platewatch/internal/usecase"
)

// Application wires config to the pipeline and its collaborators.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	archive  *storage.Archive
	deployer ports.Deployer
}

// New builds a runnable application instance. The store and the optional
// archive are opened here; an archive that cannot be opened is a
// misconfiguration and fails construction.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Scan.HTTPTimeoutSeconds) * time.Second,
	}

	registry := scanner.NewRegistry()
	registry.Register(source.NewRangeSource(
		cfg.Range.Prefix, cfg.Range.Start, cfg.Range.End, cfg.Range.Width))
	registry.Register(source.NewSearchSource(
		cfg.Endpoints.SearchBase, cfg.Scan.PageCap, httpClient,
		baseLogger.With("component", "source.search")))

	src, err := registry.Resolve(cfg.Scan.Strategy)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewFileStore(cfg.Storage.PlatesFile, cfg.Storage.SeenFile)
	if err != nil {
		return nil, err
	}

	var archive *storage.Archive
	var archiver ports.Archiver
	if cfg.Storage.ArchiveFile != "" {
		archive, err = storage.OpenArchive(cfg.Storage.ArchiveFile)
		if err != nil {
			return nil, err
		}
		archiver = archive
	}

	var notifier ports.Notifier = notify.NewNoop()
	if cfg.Notifications.Desktop.Enabled {
		notifier = notify.NewDesktop()
	}

	var deployer ports.Deployer = deploy.NewNoop()
	if cfg.Deploy.Enabled {
		deployer = deploy.NewNetlify(cfg.Deploy.Dir, baseLogger.With("component", "deploy"))
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source: src,
		Vehicles: resolver.NewPlateResolver(
			cfg.Endpoints.PlateDetailBase, httpClient),
		Insurance: resolver.NewInsuranceResolver(
			cfg.Endpoints.InsuranceBase, httpClient,
			baseLogger.With("component", "resolver.insurance")),
		Store:       store,
		Archive:     archiver,
		Notifier:    notifier,
		Logger:      baseLogger.With("component", "pipeline"),
		Concurrency: cfg.Scan.Concurrency,
		NotifyAfter: time.Duration(cfg.Notifications.Desktop.TimeoutSeconds) * time.Second,
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		archive:  archive,
		deployer: deployer,
	}, nil
}

// Run performs a single discovery pass for the current day, then the deploy
// step. The deploy runs regardless of the pipeline outcome; only pipeline
// persistence errors are returned.
func (a *Application) Run(ctx context.Context) error {
	count, err := a.pipeline.Run(ctx, time.Now())

	if deployErr := a.deployer.Deploy(ctx); deployErr != nil {
		a.logger.Warn("deploy failed", "error", deployErr)
	}

	if a.archive != nil {
		if closeErr := a.archive.Close(); closeErr != nil {
			a.logger.Warn("archive close failed", "error", closeErr)
		}
	}

	if err != nil {
		return err
	}

	a.logger.Info("scan finished", "new_registrations", count)
	return nil
}
