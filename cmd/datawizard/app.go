package main

import (
	"context"
	"fmt"

	"github.com/hyperjump/datawizard/internal/config"
	"github.com/hyperjump/datawizard/internal/extract"
	"github.com/hyperjump/datawizard/internal/generate"
	"github.com/hyperjump/datawizard/internal/history"
	"github.com/hyperjump/datawizard/internal/pipeline"
	"github.com/hyperjump/datawizard/pkg/utils"
	"go.uber.org/zap"
)

// app holds the components shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *history.SQLiteStore
	generator generate.Generator
	pipeline  *pipeline.Pipeline
}

// setup loads config, the credential, and the logger. The returned app has no pipeline yet.
func setup(path string, debug bool) (*app, error) {
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.LoadAPIKey(cfg)

	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return &app{cfg: cfg, logger: logger}, nil
}

// openHistory opens the history store when history is enabled. Failures are logged and the
// app continues without history.
func (a *app) openHistory() {
	if !a.cfg.History.EnabledOrDefault() {
		return
	}
	store, err := history.NewSQLiteStore(a.cfg.History.DatabasePath)
	if err != nil {
		a.logger.Warn("history disabled: cannot open database",
			zap.String("path", a.cfg.History.DatabasePath), zap.Error(err))
		return
	}
	a.store = store
}

// historyStore returns the store as an interface, nil when history is off.
func (a *app) historyStore() history.Store {
	if a.store == nil {
		return nil
	}
	return a.store
}

// buildPipeline wires extractor, generator, and history into a pipeline. A missing
// credential or a bad OCR setting degrades runs rather than failing startup.
func (a *app) buildPipeline(ctx context.Context) {
	cfg := a.cfg
	extOpts := []extract.ExtractorOption{extract.WithLogger(a.logger)}
	ocr, err := extract.NewOCR(cfg.Extract.OCR.Engine, cfg.Extract.OCR.Command, cfg.Extract.OCR.Languages)
	if err != nil {
		a.logger.Warn("OCR disabled", zap.Error(err))
	} else {
		extOpts = append(extOpts, extract.WithOCR(ocr))
	}
	extractor := extract.NewExtractor(extract.Options{
		SampleRows:       cfg.Extract.SampleRows,
		SampleParagraphs: cfg.Extract.SampleParagraphs,
		DocxStrategy:     cfg.Extract.DocxStrategy,
		SnippetParts:     cfg.Extract.SnippetParts,
		MinPDFText:       cfg.Extract.MinPDFText,
		MaxFileSize:      cfg.Extract.MaxFileSize,
	}, extOpts...)

	pipeOpts := []pipeline.Option{pipeline.WithLogger(a.logger)}
	gen, err := generate.New(ctx, cfg.Generation, generate.WithLogger(a.logger))
	if err != nil {
		a.logger.Warn("generation unavailable", zap.Error(err))
		pipeOpts = append(pipeOpts, pipeline.WithGeneratorError(err))
	}
	a.generator = gen
	if store := a.historyStore(); store != nil {
		pipeOpts = append(pipeOpts, pipeline.WithHistory(store))
	}
	a.pipeline = pipeline.New(extractor, gen, pipeline.Options{
		Footer:      cfg.Output.Footer,
		StrictTable: cfg.Output.StrictTable,
	}, pipeOpts...)
}

// Close releases the generator, the store, and flushes the logger.
func (a *app) Close() {
	if a.generator != nil {
		if err := a.generator.Close(); err != nil {
			a.logger.Debug("generator close failed", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("history close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
