// Package experiment drives one evaluation pass over a dataset: for every
// item it renders the PDF, builds the prompt, calls the extraction client,
// scores the candidate against the expected output, and forwards the result
// to the tracking sink.
//
// Items are independent and processed by a bounded worker pool. A failed
// item is recorded with its failure kind and the run continues; only a
// dataset that cannot be loaded at all fails the run.
package experiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orderlens/orderlens/internal/extract"
	"github.com/orderlens/orderlens/internal/prompt"
	"github.com/orderlens/orderlens/internal/render"
	"github.com/orderlens/orderlens/internal/score"
	"github.com/orderlens/orderlens/internal/track"
)

// RunnerConfig configures an experiment run.
type RunnerConfig struct {
	Dataset   *track.Dataset
	PDFDir    string
	Extractor extract.Extractor
	Sink      *track.Sink // optional; nil disables result submission
	RunName   string      // default: "<client> order extraction <uuid>"
	Model     string      // recorded in the report only
	Workers   int         // default: 1
	Logger    *slog.Logger

	// Renderer overrides PDF rendering (tests). Defaults to render.PDF.
	Renderer func(ctx context.Context, path string) ([]render.PageImage, error)
}

// Runner executes one pass over a dataset.
type Runner struct {
	cfg RunnerConfig
	log *slog.Logger
}

// NewRunner creates a runner. Dataset, PDFDir, and Extractor are required.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Dataset == nil {
		return nil, errors.New("runner: dataset is required")
	}
	if cfg.PDFDir == "" {
		return nil, errors.New("runner: pdf directory is required")
	}
	if cfg.Extractor == nil {
		return nil, errors.New("runner: extractor is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.PDF
	}
	if cfg.RunName == "" {
		cfg.RunName = fmt.Sprintf("%s order extraction %s",
			cfg.Extractor.Name(), uuid.New().String()[:8])
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runner{cfg: cfg, log: log}, nil
}

// Run processes every dataset item and returns the run report. Item
// failures are recorded in the report, not returned as errors; Run errs
// only when the context is cancelled before the pass completes.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	items := r.cfg.Dataset.Items
	started := time.Now()

	r.log.Info("starting experiment run",
		"run", r.cfg.RunName, "dataset", r.cfg.Dataset.Name,
		"items", len(items), "workers", r.cfg.Workers)

	itemCh := make(chan track.DatasetItem)
	resultCh := make(chan ItemResult, r.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				res := r.processItem(ctx, item)
				r.forward(ctx, item, res)
				select {
				case resultCh <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for _, item := range items {
			select {
			case itemCh <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]ItemResult, 0, len(items))
	for res := range resultCh {
		if res.Failed() {
			r.log.Warn("item failed",
				"item", res.ItemID, "file", res.Filename,
				"kind", res.Failure, "error", res.Error)
		} else {
			r.log.Info("item scored",
				"item", res.ItemID, "file", res.Filename,
				"avg_score", res.Scores.AvgScore,
				"exact_match", res.Scores.ExactMatch)
		}
		results = append(results, res)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Workers finish in arbitrary order; report items in dataset order.
	order := make(map[string]int, len(items))
	for i, item := range items {
		order[item.ID] = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		return order[results[i].ItemID] < order[results[j].ItemID]
	})

	report := &RunReport{
		RunName:    r.cfg.RunName,
		Dataset:    r.cfg.Dataset.Name,
		Model:      r.cfg.Model,
		Total:      len(results),
		Aggregates: aggregate(results),
		Items:      results,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	for i := range results {
		if results[i].Failed() {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}

	r.log.Info("experiment run complete",
		"run", r.cfg.RunName, "succeeded", report.Succeeded,
		"failed", report.Failed, "avg_score", report.Aggregates.AvgScore)

	return report, nil
}

// processItem runs the per-item pipeline: expected-output precondition,
// render, prompt, extract, score. Stages are strictly sequential within an
// item.
func (r *Runner) processItem(ctx context.Context, item track.DatasetItem) ItemResult {
	started := time.Now()
	res := ItemResult{
		ItemID:   item.ID,
		Filename: item.Input.Filename,
		TraceID:  uuid.New().String(),
	}

	fail := func(kind FailureKind, err error) ItemResult {
		res.Failure = kind
		res.Error = err.Error()
		res.Duration = time.Since(started)
		return res
	}

	expected, err := item.Expected()
	if err != nil {
		return fail(FailurePrecondition, fmt.Errorf("malformed expected output: %w", err))
	}
	if err := score.CheckExpected(expected); err != nil {
		return fail(FailurePrecondition, err)
	}

	pdfPath := filepath.Join(r.cfg.PDFDir, item.Input.Filename)
	if _, err := os.Stat(pdfPath); err != nil {
		return fail(FailureDocument, fmt.Errorf("PDF not found: %s", pdfPath))
	}

	pages, err := r.cfg.Renderer(ctx, pdfPath)
	if err != nil {
		return fail(FailureDocument, err)
	}

	req := prompt.Build(item.Input.Email, pages)

	candidate, err := r.cfg.Extractor.Extract(ctx, req)
	if err != nil {
		return fail(classify(err), err)
	}

	scores := score.Evaluate(candidate, expected)
	res.Output = candidate
	res.Scores = &scores
	res.Duration = time.Since(started)
	return res
}

// forward hands the item's result to the tracking sink.
func (r *Runner) forward(ctx context.Context, item track.DatasetItem, res ItemResult) {
	if r.cfg.Sink == nil {
		return
	}

	runItem := track.RunItem{
		RunName:       r.cfg.RunName,
		DatasetItemID: item.ID,
		TraceID:       res.TraceID,
	}

	var scores map[string]float64
	if res.Failed() {
		runItem.Error = fmt.Sprintf("%s: %s", res.Failure, res.Error)
	} else {
		out, err := json.Marshal(res.Output)
		if err != nil {
			r.log.Error("failed to encode output", "item", item.ID, "error", err)
			return
		}
		runItem.Output = out
		scores = res.Scores.Values()
	}

	if err := r.cfg.Sink.Submit(track.Submission{RunItem: runItem, Scores: scores}); err != nil {
		r.log.Error("failed to submit result", "item", item.ID, "error", err)
	}
}

// classify maps an extraction error onto a failure kind.
func classify(err error) FailureKind {
	var exErr *extract.Error
	if errors.As(err, &exErr) && exErr.Kind == extract.KindSchema {
		return FailureSchema
	}

	var docErr *render.DocumentError
	if errors.As(err, &docErr) {
		return FailureDocument
	}

	return FailureTransport
}
