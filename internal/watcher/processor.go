package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hyperjump/datawizard/internal/config"
	"github.com/hyperjump/datawizard/internal/fileid"
	"github.com/hyperjump/datawizard/internal/materialize"
	"github.com/hyperjump/datawizard/internal/models"
	"go.uber.org/zap"
)

const queueSize = 256

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, req models.RunRequest) (*models.RunResult, error)
}

// FingerprintChecker reports whether content with the given fingerprint was already processed.
// history.Store satisfies it.
type FingerprintChecker interface {
	HasFingerprint(ctx context.Context, fingerprint string) (bool, error)
}

// Processor runs inbox files through a Runner one at a time, writing outputs to the outbox.
// A file whose content was already processed (in this session or, with a checker, in
// history) is skipped.
type Processor struct {
	runner   Runner
	checker  FingerprintChecker
	cfg      config.WatchConfig
	queue    chan string
	stopped  chan struct{}
	stopOnce sync.Once
	onResult func(path string, res *models.RunResult, err error)
	logger   *zap.Logger

	mu   sync.Mutex
	seen map[string]string // PathID -> fingerprint last processed
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets a logger.
func WithProcessorLogger(l *zap.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// WithFingerprintChecker skips files whose content is already in history.
func WithFingerprintChecker(c FingerprintChecker) ProcessorOption {
	return func(p *Processor) { p.checker = c }
}

// WithResultHandler is called after every completed run.
func WithResultHandler(fn func(path string, res *models.RunResult, err error)) ProcessorOption {
	return func(p *Processor) { p.onResult = fn }
}

// NewProcessor creates a processor using the instruction, format, mode, and outbox in cfg.
func NewProcessor(runner Runner, cfg config.WatchConfig, opts ...ProcessorOption) *Processor {
	p := &Processor{
		runner:  runner,
		cfg:     cfg,
		queue:   make(chan string, queueSize),
		stopped: make(chan struct{}),
		logger:  zap.NewNop(),
		seen:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enqueue schedules path for processing. It blocks while the queue is full and drops path
// once Run has returned.
func (p *Processor) Enqueue(path string) {
	select {
	case p.queue <- path:
	case <-p.stopped:
		p.logger.Debug("processor stopped, dropping file", zap.String("path", path))
	}
}

// Run processes queued files until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	defer p.stopOnce.Do(func() { close(p.stopped) })
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-p.queue:
			res, skipped, err := p.Process(ctx, path)
			if skipped {
				continue
			}
			if p.onResult != nil {
				p.onResult(path, res, err)
			}
		}
	}
}

// Process runs one file. skipped is true when the file was already processed.
func (p *Processor) Process(ctx context.Context, path string) (res *models.RunResult, skipped bool, err error) {
	fp, err := fileid.Fingerprint(path)
	if err != nil {
		p.logger.Warn("cannot read inbox file", zap.String("path", path), zap.Error(err))
		return nil, true, nil
	}
	if p.alreadyProcessed(ctx, path, fp) {
		p.logger.Debug("skipping already processed file", zap.String("path", path))
		return nil, true, nil
	}

	req := models.RunRequest{
		Source:      path,
		OutputPath:  p.outputPath(path),
		Instruction: p.cfg.Instruction,
		Format:      models.Format(p.cfg.Format),
		Mode:        models.Mode(p.cfg.Mode),
	}
	p.logger.Info("processing inbox file", zap.String("path", path), zap.String("output", req.OutputPath))
	res, err = p.runner.Run(ctx, req)

	// only a clean run counts; degraded and fatal runs are retried on the next event
	if err == nil && res != nil && res.Status() == models.StatusOK {
		p.mu.Lock()
		p.seen[fileid.PathID(path)] = fp
		p.mu.Unlock()
	}
	return res, false, err
}

func (p *Processor) alreadyProcessed(ctx context.Context, path, fp string) bool {
	p.mu.Lock()
	last, ok := p.seen[fileid.PathID(path)]
	p.mu.Unlock()
	if ok && last == fp {
		return true
	}
	if p.checker == nil {
		return false
	}
	found, err := p.checker.HasFingerprint(ctx, fp)
	if err != nil {
		p.logger.Warn("history lookup failed", zap.String("path", path), zap.Error(err))
		return false
	}
	return found
}

func (p *Processor) outputPath(source string) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return materialize.AvailablePath(filepath.Join(p.cfg.Outbox, stem), "txt")
}
