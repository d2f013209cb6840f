// Package pipeline runs one request end to end: extract a snippet, build the prompt, ask the
// generation service, and materialize the reply into output files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/datawizard/internal/extract"
	"github.com/hyperjump/datawizard/internal/fileid"
	"github.com/hyperjump/datawizard/internal/generate"
	"github.com/hyperjump/datawizard/internal/history"
	"github.com/hyperjump/datawizard/internal/materialize"
	"github.com/hyperjump/datawizard/internal/models"
	"github.com/hyperjump/datawizard/internal/prompt"
	"go.uber.org/zap"
)

var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrUnknownMode   = errors.New("unknown mode")
)

// Extractor turns a source path into a snippet.
type Extractor interface {
	Extract(ctx context.Context, path string) extract.Result
	ExtractOCR(ctx context.Context, path string) extract.Result
}

// Options holds materialization settings.
type Options struct {
	Footer      string
	StrictTable bool
}

// Pipeline wires the extractor, generator, materializer, and optional history store.
type Pipeline struct {
	extractor Extractor
	generator generate.Generator
	genErr    error
	store     history.Store
	opts      Options
	logger    *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithHistory records every run in store.
func WithHistory(store history.Store) Option {
	return func(p *Pipeline) { p.store = store }
}

// WithGeneratorError records why no generator is available; runs then reply with the sentinel
// and carry err as the generate-stage reason.
func WithGeneratorError(err error) Option {
	return func(p *Pipeline) { p.genErr = err }
}

// New creates a pipeline. generator may be nil (see WithGeneratorError).
func New(extractor Extractor, generator generate.Generator, opts Options, options ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		generator: generator,
		opts:      opts,
		logger:    zap.NewNop(),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Validate normalizes format and mode and checks the request before any work is done.
// Unknown values wrap ErrUnknownFormat or ErrUnknownMode.
func Validate(req *models.RunRequest) error {
	f, err := models.ParseFormat(string(req.Format))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownFormat, req.Format)
	}
	m, err := models.ParseMode(string(req.Mode))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownMode, req.Mode)
	}
	req.Format, req.Mode = f, m
	return req.Validate()
}

// Run executes req. The returned error is non-nil only when the run is fatal: an invalid
// request (no files are written) or an unwritable output path. Degraded stages are reported
// in the result's outcomes.
func (p *Pipeline) Run(ctx context.Context, req models.RunRequest) (*models.RunResult, error) {
	start := time.Now()
	res := &models.RunResult{ID: uuid.New().String(), Request: req, StartedAt: start.UTC()}
	finish := func() { res.DurationMs = time.Since(start).Milliseconds() }

	if err := Validate(&req); err != nil {
		res.Outcomes = append(res.Outcomes, models.Fatal(models.StageRequest, err.Error()))
		finish()
		return res, err
	}
	res.Request = req
	res.SourceKind = models.KindFromPath(req.Source)
	if req.Mode == models.ModePromptOnly {
		res.SourceKind = models.KindNone
	}
	p.beginHistory(ctx, res)

	snippet := p.extract(ctx, res)
	text := p.generate(ctx, res, prompt.Build(req.Instruction, req.Format.Shape(), snippet))

	if err := materialize.WriteText(req.OutputPath, text); err != nil {
		res.Outcomes = append(res.Outcomes, models.Fatal(models.StageWriteText, err.Error()))
		finish()
		p.endHistory(ctx, res)
		return res, err
	}
	res.Outcomes = append(res.Outcomes, models.OK(models.StageWriteText))
	p.addArtifact(res, models.ArtifactText, req.OutputPath)

	outcome := p.materialize(res, text)
	res.Outcomes = append(res.Outcomes, outcome)
	finish()
	p.endHistory(ctx, res)

	if outcome.Status == models.StatusFatal {
		return res, errors.New(outcome.Reason)
	}
	p.logger.Debug("run finished",
		zap.String("id", res.ID),
		zap.String("status", string(res.Status())),
		zap.Int64("duration_ms", res.DurationMs))
	return res, nil
}

func (p *Pipeline) extract(ctx context.Context, res *models.RunResult) string {
	req := res.Request
	var r extract.Result
	switch req.Mode {
	case models.ModePromptOnly:
		res.Outcomes = append(res.Outcomes, models.OK(models.StageExtract))
		res.Method = extract.MethodNone
		return ""
	case models.ModeOCR:
		r = p.extractor.ExtractOCR(ctx, req.Source)
	default:
		r = p.extractor.Extract(ctx, req.Source)
	}
	res.SourceKind = r.Kind
	res.Method = r.Method
	res.Outcomes = append(res.Outcomes, r.Outcome)
	p.logger.Debug("extracted snippet",
		zap.String("source", req.Source),
		zap.String("kind", string(r.Kind)),
		zap.String("method", r.Method),
		zap.Int("chars", len(r.Text)))
	return r.Text
}

func (p *Pipeline) generate(ctx context.Context, res *models.RunResult, promptText string) string {
	var reply generate.Reply
	if p.generator == nil {
		err := p.genErr
		if err == nil {
			err = errors.New("no generator configured")
		}
		reply = generate.Failed(err)
	} else {
		reply = generate.Ask(ctx, p.generator, promptText)
	}
	if reply.IsSentinel() {
		p.logger.Warn("generation failed", zap.String("reason", reply.Outcome.Reason))
	}
	res.Outcomes = append(res.Outcomes, reply.Outcome)
	return reply.Text
}

// materialize writes the format-specific derived artifact next to the output path.
func (p *Pipeline) materialize(res *models.RunResult, text string) models.Outcome {
	req := res.Request
	base := DerivedBase(req.OutputPath)
	switch req.Format {
	case models.FormatText:
		path := materialize.AvailablePath(base+"_final", "txt")
		if err := materialize.WriteText(path, text); err != nil {
			return models.Fatal(models.StageMaterialize, err.Error())
		}
		p.addArtifact(res, models.ArtifactFinalText, path)

	case models.FormatExcel:
		table, source, err := materialize.SpreadsheetTable(text, p.opts.StrictTable)
		if errors.Is(err, materialize.ErrNoTable) || errors.Is(err, materialize.ErrColumnMismatch) {
			return models.Degraded(models.StageMaterialize, err.Error())
		}
		if err != nil {
			return models.Fatal(models.StageMaterialize, err.Error())
		}
		path := materialize.AvailablePath(base+"_parsed", "xlsx")
		if err := materialize.WriteSpreadsheet(table, path); err != nil {
			return models.Fatal(models.StageMaterialize, err.Error())
		}
		p.logger.Debug("spreadsheet written", zap.String("path", path), zap.String("source", source), zap.Int("rows", len(table.Rows)))
		p.addArtifact(res, models.ArtifactSpreadsheet, path)

	case models.FormatWord:
		path := materialize.AvailablePath(base+"_output", "docx")
		layout, err := materialize.WriteDocument(text, path, p.opts.Footer)
		if err != nil {
			return models.Fatal(models.StageMaterialize, err.Error())
		}
		p.logger.Debug("document written", zap.String("path", path), zap.String("layout", layout.String()))
		p.addArtifact(res, models.ArtifactDocument, path)
	}
	return models.OK(models.StageMaterialize)
}

// DerivedBase returns the output path without its extension; derived artifacts are named
// from it (<base>_final.txt, <base>_parsed.xlsx, <base>_output.docx).
func DerivedBase(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
}

func (p *Pipeline) addArtifact(res *models.RunResult, kind models.ArtifactKind, path string) {
	a := models.Artifact{Kind: kind, Path: path}
	if info, err := os.Stat(path); err == nil {
		a.Size = info.Size()
	}
	res.Artifacts = append(res.Artifacts, a)
}

func (p *Pipeline) beginHistory(ctx context.Context, res *models.RunResult) {
	if p.store == nil {
		return
	}
	req := res.Request
	rec := &models.HistoryRecord{
		ID:         res.ID,
		SourcePath: req.Source,
		InputKind:  res.SourceKind,
		Format:     req.Format,
		Mode:       req.Mode,
		Prompt:     req.Instruction,
		Status:     models.StatusRunning,
	}
	if res.SourceKind != models.KindNone {
		if fp, err := fileid.Fingerprint(req.Source); err == nil {
			rec.SourceFingerprint = fp
		}
	}
	if err := p.store.CreateRun(ctx, rec); err != nil {
		p.logger.Warn("failed to record run", zap.String("id", res.ID), zap.Error(err))
	}
}

func (p *Pipeline) endHistory(ctx context.Context, res *models.RunResult) {
	if p.store == nil {
		return
	}
	// recording must not be cut short by a cancelled run
	ctx = context.WithoutCancel(ctx)
	for _, a := range res.Artifacts {
		if err := p.store.AddArtifact(ctx, res.ID, a); err != nil {
			p.logger.Warn("failed to record output file", zap.String("path", a.Path), zap.Error(err))
		}
	}
	var reasons []string
	for _, o := range res.Problems() {
		reasons = append(reasons, string(o.Stage)+": "+o.Reason)
	}
	if err := p.store.UpdateStatus(ctx, res.ID, res.Status(), reasons, res.DurationMs); err != nil {
		p.logger.Warn("failed to update run status", zap.String("id", res.ID), zap.Error(err))
	}
}
