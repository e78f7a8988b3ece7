package slambook

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProfileStore is the profile side of the backing store.
type ProfileStore interface {
	// ListAll returns every stored profile; the match index is rebuilt
	// from a full read on each run.
	ListAll(ctx context.Context) ([]Profile, error)
	// ReserveIDs atomically reserves n unique profile ids from the
	// store's native sequence.
	ReserveIDs(ctx context.Context, n int) ([]int64, error)
	// UpsertMany applies all records in one call with insert-or-replace
	// semantics keyed on id, returning the persisted {id, name} pairs.
	UpsertMany(ctx context.Context, records []UpsertRecord) ([]PersistedProfile, error)
}

// AnswerStore is the answer side of the backing store.
type AnswerStore interface {
	DeleteByProfileIDs(ctx context.Context, ids []int64) (int64, error)
	InsertMany(ctx context.Context, records []AnswerRecord) (int64, error)
}

// inputError marks client-fixable problems (empty file, no valid rows);
// the upload endpoint maps these to 400 instead of 500.
type inputError struct{ msg string }

func (e *inputError) Error() string { return e.msg }

func errInput(format string, args ...any) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err is a client-fixable input error.
func IsInputError(err error) bool {
	var ie *inputError
	return errors.As(err, &ie)
}

// Ingestor runs the slambook ingestion pipeline against a backing store.
type Ingestor struct {
	profiles ProfileStore
	answers  AnswerStore
	runs     RunStore // nil disables run logging
}

// NewIngestor wires the pipeline to its stores. runs may be nil.
func NewIngestor(profiles ProfileStore, answers AnswerStore, runs RunStore) *Ingestor {
	return &Ingestor{profiles: profiles, answers: answers, runs: runs}
}

// Run ingests one CSV upload end to end and returns the structured report.
// A profile-upsert failure aborts the whole run; answer-replacement
// failures are surfaced in the report's failed counters instead.
func (ing *Ingestor) Run(ctx context.Context, filename, content string) (*Report, error) {
	tokens, parseWarnings := TokenizeCSV(content)
	return ing.RunRows(ctx, filename, tokens, parseWarnings)
}

// RunRows ingests an already-tokenized cell grid (CSV or a converted
// workbook sheet).
func (ing *Ingestor) RunRows(ctx context.Context, filename string, tokens [][]string, parseWarnings []ParseWarning) (*Report, error) {
	log := zap.L().With(
		zap.String("component", "slambook.ingest"),
		zap.String("file", filename),
	)

	if len(tokens) <= 1 {
		return nil, errInput("file is empty or contains only a header row")
	}
	rows := NormalizeRows(tokens)
	if len(rows) == 0 {
		return nil, errInput("no valid rows: each row needs at least %d cells and a non-empty name", minCells)
	}

	var runID string
	if ing.runs != nil {
		id, err := ing.runs.StartRun(ctx, filename)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: start run log")
		}
		runID = id
	}

	report, err := ing.run(ctx, log, rows, parseWarnings)
	if err != nil {
		if runID != "" {
			if logErr := ing.runs.FailRun(ctx, runID, err.Error()); logErr != nil {
				log.Error("failed to record run failure", zap.Error(logErr))
			}
		}
		return nil, err
	}

	if runID != "" {
		if err := ing.runs.CompleteRun(ctx, runID, report); err != nil {
			log.Error("failed to record run completion", zap.Error(err))
		}
	}
	return report, nil
}

func (ing *Ingestor) run(ctx context.Context, log *zap.Logger, rows []Row, parseWarnings []ParseWarning) (*Report, error) {
	// Read the full profile set and reserve ids for the worst case (every
	// row new) concurrently. Unused reservations are sequence gaps.
	var (
		profiles []Profile
		ids      []int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profiles, err = ing.profiles.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ids, err = ing.profiles.ReserveIDs(gctx, len(rows))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "ingest: prepare")
	}

	ix := NewIndex(profiles)
	log.Info("match index built",
		zap.Int("rows", len(rows)),
		zap.Int("profiles", ix.Len()),
	)

	plan, err := BuildPlan(rows, ix, NewIDBlock(ids))
	if err != nil {
		return nil, err
	}

	// One batch upsert; failure here is fatal to the whole run and no
	// partial report is produced.
	persisted, err := ing.profiles.UpsertMany(ctx, plan.Records)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: upsert profiles")
	}

	warnings := make([]string, 0, len(parseWarnings))
	for _, w := range parseWarnings {
		warnings = append(warnings, fmt.Sprintf("row %d: %s", w.Row, w.Message))
	}

	answerRecs := DeriveAnswers(rows, plan.Records)
	counts := ing.replaceAnswers(ctx, log, plan, answerRecs, &warnings)

	report := BuildReport(plan, persisted, counts, warnings)
	log.Info("ingest complete",
		zap.Int("total", report.Profiles.Total),
		zap.Int("matched", report.Profiles.Matched),
		zap.Int("created", report.Profiles.Unmatched),
		zap.Int("answers", report.QAAnswers.Created),
		zap.Int("answersFailed", report.QAAnswers.Failed),
	)
	return report, nil
}

// replaceAnswers deletes every prior answer for the touched profiles and
// inserts the newly derived set. The delete targets all touched ids,
// matched and newly created alike; for new profiles it is a no-op but keeps
// the step uniform under retries. A delete failure aborts the insert —
// inserting over undeleted rows would duplicate answers — and every derived
// answer is counted as failed.
func (ing *Ingestor) replaceAnswers(ctx context.Context, log *zap.Logger, plan *Plan, records []AnswerRecord, warnings *[]string) AnswerCounts {
	counts := AnswerCounts{Total: len(records)}

	touched := make([]int64, len(plan.Records))
	for i, rec := range plan.Records {
		touched[i] = rec.ID
	}

	deleted, err := ing.answers.DeleteByProfileIDs(ctx, touched)
	if err != nil {
		log.Error("answer delete failed; skipping insert", zap.Error(err))
		counts.Failed = len(records)
		*warnings = append(*warnings, fmt.Sprintf("answer replacement skipped: %s", err.Error()))
		return counts
	}
	counts.Deleted = int(deleted)

	if len(records) == 0 {
		return counts
	}
	created, err := ing.answers.InsertMany(ctx, records)
	if err != nil {
		log.Error("answer insert failed", zap.Error(err))
		counts.Failed = len(records)
		*warnings = append(*warnings, fmt.Sprintf("answer insert failed: %s", err.Error()))
		return counts
	}
	counts.Created = int(created)
	return counts
}

// Diagnose tokenizes, normalizes, and matches without writing anything.
// New rows are assigned provisional ids after the current ceiling so the
// printed plan reads like a real run.
func (ing *Ingestor) Diagnose(ctx context.Context, content string) (*Plan, []ParseWarning, error) {
	tokens, parseWarnings := TokenizeCSV(content)
	return ing.DiagnoseRows(ctx, tokens, parseWarnings)
}

// DiagnoseRows is Diagnose for an already-tokenized cell grid.
func (ing *Ingestor) DiagnoseRows(ctx context.Context, tokens [][]string, parseWarnings []ParseWarning) (*Plan, []ParseWarning, error) {
	if len(tokens) <= 1 {
		return nil, nil, errInput("file is empty or contains only a header row")
	}
	rows := NormalizeRows(tokens)
	if len(rows) == 0 {
		return nil, nil, errInput("no valid rows: each row needs at least %d cells and a non-empty name", minCells)
	}

	profiles, err := ing.profiles.ListAll(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "diagnose: list profiles")
	}

	var maxID int64
	for _, p := range profiles {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	ids := make([]int64, len(rows))
	for i := range ids {
		ids[i] = maxID + int64(i) + 1
	}

	plan, err := BuildPlan(rows, NewIndex(profiles), NewIDBlock(ids))
	if err != nil {
		return nil, nil, err
	}
	return plan, parseWarnings, nil
}
