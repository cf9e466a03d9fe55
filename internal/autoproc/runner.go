package autoproc

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/notemark/clip-relay/internal/domain"
	"github.com/notemark/clip-relay/internal/settings"
	"github.com/notemark/clip-relay/internal/vault"
)

// ScanSummary reports what one scan pass did
type ScanSummary struct {
	Started          time.Time `json:"started"`
	DurationMs       int64     `json:"durationMs"`
	Scanned          int       `json:"scanned"`
	Merged           int       `json:"merged"`
	AlreadyProcessed int       `json:"alreadyProcessed"`
	NoSource         int       `json:"noSource"`
	ProxyDown        int       `json:"proxyDown"`
	NothingFetched   int       `json:"nothingFetched"`
	BelowRatio       int       `json:"belowRatio"`
	Failures         int       `json:"failures"`
}

// Status is the runner state exposed over the API
type Status struct {
	Enabled     bool         `json:"enabled"`
	Running     bool         `json:"running"`
	FolderPath  string       `json:"folderPath"`
	TotalScans  int64        `json:"totalScans"`
	LastRun     *time.Time   `json:"lastRun,omitempty"`
	LastSummary *ScanSummary `json:"lastSummary,omitempty"`
}

// Runner owns the recurring auto-processing timer. At most one timer loop is
// live at a time: Reconfigure tears the current loop down and starts a new
// one from the stored settings, Stop tears it down for good. Scans are
// single-flight: a tick that fires while a scan is still executing is
// skipped, and the manual trigger reports a conflict instead of piling on.
type Runner struct {
	settings    *settings.Store
	vault       *vault.Store
	transformer domain.URLTransformer
	fetcher     domain.ContentFetcher
	notifier    domain.Notifier

	running    int32
	totalScans int64

	mu          sync.Mutex
	loopStop    chan struct{}
	stopped     bool
	lastRun     time.Time
	lastSummary *ScanSummary
}

// NewRunner wires the scan collaborators; Start arms the timer
func NewRunner(store *settings.Store, notes *vault.Store, transformer domain.URLTransformer, fetcher domain.ContentFetcher, notifier domain.Notifier) *Runner {
	return &Runner{
		settings:    store,
		vault:       notes,
		transformer: transformer,
		fetcher:     fetcher,
		notifier:    notifier,
	}
}

// Start arms the timer loop according to the current settings
func (r *Runner) Start() {
	r.Reconfigure()
}

// Reconfigure replaces the timer loop with one matching the stored settings.
// Called at startup and whenever settings change; a disabled configuration
// leaves no loop running. An in-flight scan is allowed to finish.
func (r *Runner) Reconfigure() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	if r.loopStop != nil {
		close(r.loopStop)
		r.loopStop = nil
	}

	cfg := r.settings.Settings(context.Background()).AutoProcessing
	if !cfg.Enabled {
		log.Info().Msg("Auto-processing disabled")
		return
	}

	frequency := cfg.ScanFrequency()
	if frequency <= 0 {
		frequency = time.Duration(domain.DefaultFrequencyMinutes) * time.Minute
	}

	stop := make(chan struct{})
	r.loopStop = stop
	go r.loop(frequency, stop)

	log.Info().
		Str("folder", cfg.FolderPath).
		Dur("frequency", frequency).
		Msg("Auto-processing scheduled")
}

// Stop tears the timer down permanently. Idempotent; an in-flight scan
// completes but no new run starts afterwards.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	r.stopped = true
	if r.loopStop != nil {
		close(r.loopStop)
		r.loopStop = nil
	}
	log.Info().Msg("Auto-processing stopped")
}

func (r *Runner) loop(every time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := r.RunOnce(context.Background()); err != nil {
				log.Debug().Err(err).Msg("Skipping scheduled scan")
			}
		}
	}
}

// RunOnce executes a single scan pass. It returns a SCAN_IN_FLIGHT conflict
// when another scan is still executing; the scheduled loop and the manual
// API trigger share this guard.
func (r *Runner) RunOnce(ctx context.Context) (*ScanSummary, error) {
	if !atomic.CompareAndSwapInt32(&r.running, 0, 1) {
		return nil, domain.NewAppError(
			domain.ErrScanInFlight,
			"An auto-process scan is already running",
			409,
			nil,
		)
	}
	defer atomic.StoreInt32(&r.running, 0)

	summary := r.scan(ctx)
	atomic.AddInt64(&r.totalScans, 1)

	r.mu.Lock()
	r.lastRun = summary.Started
	r.lastSummary = summary
	r.mu.Unlock()

	return summary, nil
}

// Status reports the runner state for the API
func (r *Runner) Status(ctx context.Context) Status {
	cfg := r.settings.Settings(ctx).AutoProcessing

	r.mu.Lock()
	defer r.mu.Unlock()

	status := Status{
		Enabled:    cfg.Enabled,
		Running:    atomic.LoadInt32(&r.running) == 1,
		FolderPath: cfg.FolderPath,
		TotalScans: atomic.LoadInt64(&r.totalScans),
	}
	if !r.lastRun.IsZero() {
		lastRun := r.lastRun
		status.LastRun = &lastRun
		summary := *r.lastSummary
		status.LastSummary = &summary
	}
	return status
}

// scan walks the watched folder and processes each note in listing order.
// One note fully resolves (probe included) before the next begins, so a down
// proxy found early is served from cache for the rest of the batch.
func (r *Runner) scan(ctx context.Context) *ScanSummary {
	cfg := r.settings.Settings(ctx).AutoProcessing
	summary := &ScanSummary{Started: time.Now()}
	defer func() {
		summary.DurationMs = time.Since(summary.Started).Milliseconds()
		log.Info().
			Int("scanned", summary.Scanned).
			Int("merged", summary.Merged).
			Int("proxy_down", summary.ProxyDown).
			Int("failures", summary.Failures).
			Int64("duration_ms", summary.DurationMs).
			Msg("Auto-process scan finished")
	}()

	paths, err := r.vault.ListMarkdown(ctx, cfg.FolderPath)
	if err != nil {
		log.Warn().Err(err).Str("folder", cfg.FolderPath).Msg("Cannot list watched folder")
		summary.Failures++
		return summary
	}

	// One proxy-down notice per rule per batch, not one per note
	noticed := make(map[string]bool)

	for _, relPath := range paths {
		summary.Scanned++
		outcome := r.processNote(ctx, relPath, cfg.MinContentLengthRatio, summary, noticed)
		log.Debug().Str("note", relPath).Str("outcome", outcome).Msg("Note visited")
	}
	return summary
}

// processNote handles one note and returns the outcome label for logging
func (r *Runner) processNote(ctx context.Context, relPath string, minRatio float64, summary *ScanSummary, noticed map[string]bool) string {
	doc, err := r.vault.ReadDocument(ctx, relPath)
	if err != nil {
		summary.Failures++
		log.Warn().Err(err).Str("note", relPath).Msg("Cannot read note")
		return "read_failed"
	}
	if doc.Processed() {
		summary.AlreadyProcessed++
		return "already_processed"
	}

	source := doc.SourceURL()
	if source == "" {
		summary.NoSource++
		return "no_source"
	}

	result := r.transformer.TransformURL(ctx, source)
	if !result.Usable() {
		summary.ProxyDown++
		if result.AppliedRule != "" && !noticed[result.AppliedRule] {
			noticed[result.AppliedRule] = true
			r.notifier.Notify(ctx, "Proxy unavailable", result.Error)
		}
		return "proxy_down"
	}

	markdown, err := r.fetcher.FetchMarkdown(ctx, result.TransformedURL)
	if err != nil {
		summary.Failures++
		log.Warn().Err(err).Str("note", relPath).Str("url", result.TransformedURL).Msg("Fetch failed")
		return "fetch_failed"
	}
	if markdown == "" {
		summary.NothingFetched++
		return "nothing_fetched"
	}

	if !Decide(doc.Processed(), len(doc.Body), len(markdown), minRatio) {
		summary.BelowRatio++
		return "below_ratio"
	}

	body := strings.TrimRight(doc.Body, "\n")
	if body != "" {
		body += "\n\n"
	}
	doc.Body = body + markdown + "\n"
	doc.MarkProcessed()

	if err := r.vault.WriteDocument(ctx, doc); err != nil {
		summary.Failures++
		log.Warn().Err(err).Str("note", relPath).Msg("Cannot write merged note")
		return "write_failed"
	}

	summary.Merged++
	r.notifier.Notify(ctx, "Article processed", relPath)
	return "merged"
}
