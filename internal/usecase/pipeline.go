package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"platewatch/internal/domain"
	"platewatch/internal/ports"
	"platewatch/internal/scanner"
)

// PipelineDeps wires all driven adapters into the discovery pipeline.
type PipelineDeps struct {
	Source      scanner.Source
	Vehicles    ports.VehicleResolver
	Insurance   ports.InsuranceResolver
	Store       ports.RegistrationStore
	Archive     ports.Archiver
	Notifier    ports.Notifier
	Logger      *slog.Logger
	Concurrency int
	NotifyAfter time.Duration
}

// Pipeline implements the discovery-and-enrichment workflow: candidates are
// drawn from the source, resolved to VINs, enriched with insurance facts,
// filtered to the two-day window, deduplicated, and merged into the store.
type Pipeline struct {
	source      scanner.Source
	vehicles    ports.VehicleResolver
	insurance   ports.InsuranceResolver
	store       ports.RegistrationStore
	archive     ports.Archiver
	notifier    ports.Notifier
	logger      *slog.Logger
	concurrency int
	notifyAfter time.Duration
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 20
	}
	notifyAfter := deps.NotifyAfter
	if notifyAfter <= 0 {
		notifyAfter = 10 * time.Second
	}

	return &Pipeline{
		source:      deps.Source,
		vehicles:    deps.Vehicles,
		insurance:   deps.Insurance,
		store:       deps.Store,
		archive:     deps.Archive,
		notifier:    deps.Notifier,
		logger:      logger,
		concurrency: concurrency,
		notifyAfter: notifyAfter,
	}
}

// Run executes one discovery pass for the given day and returns how many
// new registrations were confirmed. Per-candidate failures are logged and
// reduce the result set; only persistence failures are fatal.
func (p *Pipeline) Run(ctx context.Context, day time.Time) (int, error) {
	if p.source == nil || p.store == nil {
		return 0, fmt.Errorf("pipeline is not fully wired")
	}

	win := domain.NewWindow(day)

	candidates, err := p.source.Discover(ctx, win)
	if err != nil {
		return 0, fmt.Errorf("discover candidates: %w", err)
	}

	p.logger.Info("discovery produced candidates",
		"strategy", p.source.Name(),
		"candidates", len(candidates),
		"concurrency", p.concurrency,
	)

	if len(candidates) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, cand := range candidates {
		cand := cand
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			// Candidate failures stay inside the goroutine; returning an
			// error would cancel the siblings.
			p.process(gctx, cand, win)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return p.store.NewCount(), err
	}

	count := p.store.NewCount()
	if count == 0 {
		p.logger.Info("no new registrations found")
		return 0, nil
	}

	if err := p.store.Persist(); err != nil {
		return count, fmt.Errorf("persist state: %w", err)
	}

	p.logger.Info("run complete", "new_registrations", count)

	if p.notifier != nil {
		message := fmt.Sprintf("Fundet %d nye plader", count)
		if err := p.notifier.Notify("Nye nummerplader fundet", message, p.notifyAfter); err != nil {
			p.logger.Warn("notification failed", "error", err)
		}
	}

	return count, nil
}

func (p *Pipeline) process(ctx context.Context, cand domain.Candidate, win domain.Window) {
	plate, vin := cand.Plate, cand.VIN

	if vin == "" {
		if p.vehicles == nil {
			p.logger.Warn("no vehicle resolver for bare candidate", "plate", plate)
			return
		}

		fact, ok, err := p.vehicles.Resolve(ctx, plate, win)
		if err != nil {
			p.logger.Warn("plate resolution failed", "plate", plate, "error", err)
			return
		}
		if !ok {
			p.logger.Debug("candidate rejected", "plate", plate)
			return
		}
		vin = fact.VIN
	}

	// Dedup before the insurance call so known plates cost no network trip.
	if !p.store.IsNew(plate) {
		p.logger.Debug("plate already recorded", "plate", plate)
		return
	}

	info := p.insurance.Lookup(ctx, vin)

	created, err := time.ParseInLocation(domain.WireDateLayout, info.CreatedText, time.Local)
	if err != nil {
		p.logger.Debug("unusable policy-creation date", "plate", plate, "created", info.CreatedText)
		return
	}
	if !win.Contains(created) {
		// Outside the window the plate stays unmarked: its true creation
		// date may land in the window on a later run.
		p.logger.Debug("policy created outside window", "plate", plate, "created", info.CreatedText)
		return
	}

	entry := domain.RegistrationEntry{
		Date:  created.Format(domain.EntryDateLayout),
		Plate: plate,
	}

	if !p.store.IsNew(plate) {
		p.logger.Debug("plate confirmed concurrently", "plate", plate)
		return
	}

	if err := p.store.RecordSeen(plate); err != nil {
		p.logger.Warn("cannot record seen plate", "plate", plate, "error", err)
		return
	}

	if p.store.HasEntry(info.Insurer, plate) {
		p.logger.Debug("duplicate entry within run", "plate", plate, "insurer", info.Insurer)
		return
	}

	p.store.Insert(info.Insurer, entry)
	p.logger.Info("new registration", "plate", plate, "insurer", info.Insurer, "date", entry.Date)

	if p.archive != nil {
		if err := p.archive.Record(ctx, entry, info.Insurer, p.source.Name()); err != nil {
			p.logger.Warn("archive insert failed", "plate", plate, "error", err)
		}
	}
}
