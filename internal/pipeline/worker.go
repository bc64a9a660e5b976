package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/quotegest/internal/document"
	"github.com/dgallion1/quotegest/internal/parser"
	"github.com/dgallion1/quotegest/internal/quote"
	"github.com/dgallion1/quotegest/internal/sentence"
)

// Worker processes a single extraction job.
type Worker struct {
	seg      sentence.Segmenter
	jobs     *JobStore
	log      *slog.Logger
	parseOpt parser.Options
}

func NewWorker(seg sentence.Segmenter, jobs *JobStore, log *slog.Logger, parseOpt parser.Options) *Worker {
	return &Worker{
		seg:      seg,
		jobs:     jobs,
		log:      log,
		parseOpt: parseOpt,
	}
}

// Process runs parse, segment, pack and locate for a job. The context is
// checked between stages and between locate calls.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := w.parse(job)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	// The bytes are no longer needed once parsed.
	job.SetFileData(nil)
	job.SetPages(doc.PageCount)
	job.SetContentHash(DocumentHashHex(doc))
	if w.cancelled(ctx, job, "parsing") {
		return
	}

	// Phase 1.5: Dedup check
	if prev := w.jobs.FindCompleted(job.ContentHash, job.Bounds, job.ID); prev != nil {
		log.Info("duplicate document, reusing result", "existing_job_id", prev.ID)
		job.CopyResult(prev)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	if doc.Empty() {
		log.Info("empty document, no quotes")
		job.SetQuotes(nil)
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 2: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	sentences := w.seg.Segment(doc.FullText)
	job.SetSentences(len(sentences))
	if w.cancelled(ctx, job, "segmenting") {
		return
	}

	// Phase 3: Pack
	job.SetStatus(StatusPacking, "packing")
	candidates, err := quote.Pack(sentences, job.Bounds)
	if err != nil {
		log.Error("pack failed", "error", err)
		job.AddError(fmt.Sprintf("pack: %s", err))
		job.SetStatus(StatusFailed, "packing")
		return
	}
	job.SetCandidates(len(candidates))
	log.Info("packed candidates", "sentences", len(sentences), "candidates", len(candidates))

	// Phase 4: Locate
	job.SetStatus(StatusLocating, "locating")
	located := make([]quote.Located, 0, len(candidates))
	for _, c := range candidates {
		if w.cancelled(ctx, job, "locating") {
			return
		}
		page, tier := quote.LocateTier(c.Text, doc.Pages)
		l := quote.Located{Candidate: c, Page: page, Match: tier}
		job.IncrLocated(l.Known())
		located = append(located, l)
	}

	job.SetQuotes(located)
	log.Info("extraction complete", "candidates", len(located), "located", quote.CountKnown(located))
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) parse(job *Job) (*document.Document, error) {
	p, err := parser.ForFile(job.Filename, w.parseOpt)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if job.Title != "" {
		doc.Title = job.Title
	}
	return doc, nil
}

func (w *Worker) cancelled(ctx context.Context, job *Job, phase string) bool {
	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, phase)
		return true
	}
	return false
}
