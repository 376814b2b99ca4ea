package outreach

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/scorer"
)

// Sink receives accepted output rows.
type Sink interface {
	AppendRows(ctx context.Context, rows []model.OutputRow) error
}

// RunRecorder is implemented by sinks that keep per-keyword bookkeeping.
type RunRecorder interface {
	RecordRun(ctx context.Context, run model.RunRecord) error
}

// partialWrite is a sink error where some destinations still kept the rows.
// The keyword then counts as saved.
type partialWrite interface {
	error
	Saved() []string
}

// RunKeyword runs one keyword, filters the result and appends the accepted
// rows to sink. It returns the number of rows saved.
func (o *Orchestrator) RunKeyword(ctx context.Context, keyword string, sink Sink) (int, error) {
	rec := model.RunRecord{ID: uuid.NewString(), Keyword: strings.TrimSpace(keyword), StartedAt: o.opts.Now()}

	rows, err := o.runKeyword(ctx, keyword, sink, &rec)
	rec.Duration = o.opts.Now().Sub(rec.StartedAt)
	if err != nil {
		rec.Error = err.Error()
	}
	if rr, ok := sink.(RunRecorder); ok {
		if recErr := rr.RecordRun(ctx, rec); recErr != nil {
			zap.L().Warn("outreach: failed to record run", zap.String("run_id", rec.ID), zap.Error(recErr))
		}
	}
	return rows, err
}

func (o *Orchestrator) runKeyword(ctx context.Context, keyword string, sink Sink, rec *model.RunRecord) (int, error) {
	result, err := o.Run(ctx, keyword)
	if err != nil {
		return 0, err
	}
	rec.Domains = result.TotalDomains
	rec.Leads = len(result.Leads)

	rows := scorer.ExtractRows(result, o.opts.Thresholds, o.opts.Now())
	if len(rows) == 0 {
		zap.L().Info("outreach: no rows passed the filter", zap.String("keyword", result.Keyword))
		return 0, nil
	}
	if sink != nil {
		if err := sink.AppendRows(ctx, rows); err != nil {
			var partial partialWrite
			if !errors.As(err, &partial) {
				return 0, eris.Wrapf(err, "outreach: save rows for %q", result.Keyword)
			}
			zap.L().Warn("outreach: rows kept by some sinks only",
				zap.String("keyword", result.Keyword),
				zap.Strings("saved_to", partial.Saved()),
				zap.Error(err),
			)
		}
	}
	rec.Rows = len(rows)
	o.opts.Metrics.Leads(len(rows))
	zap.L().Info("outreach: rows saved", zap.String("keyword", result.Keyword), zap.Int("rows", len(rows)))
	return len(rows), nil
}

// RunBatch runs keywords one at a time with KeywordDelay between them. At
// most MaxKeywordsPerRun keywords are processed; a failed keyword is logged
// and the batch moves on. Only cancellation stops the batch early.
func (o *Orchestrator) RunBatch(ctx context.Context, keywords []string, sink Sink) (model.BatchSummary, error) {
	var sum model.BatchSummary
	if len(keywords) > o.opts.MaxKeywordsPerRun {
		sum.Skipped = len(keywords) - o.opts.MaxKeywordsPerRun
		keywords = keywords[:o.opts.MaxKeywordsPerRun]
	}

	zap.L().Info("outreach: starting batch",
		zap.Int("keywords", len(keywords)),
		zap.Int("skipped", sum.Skipped),
	)

	for i, kw := range keywords {
		if i > 0 {
			if err := o.opts.Sleep(ctx, o.opts.KeywordDelay); err != nil {
				return sum, eris.Wrap(err, "outreach: batch interrupted")
			}
		}
		sum.Keywords++

		n, err := o.RunKeyword(ctx, kw, sink)
		if err != nil {
			sum.Failed++
			if ctx.Err() != nil {
				return sum, eris.Wrap(ctx.Err(), "outreach: batch interrupted")
			}
			zap.L().Error("outreach: keyword failed", zap.String("keyword", kw), zap.Error(err))
			continue
		}
		sum.Succeeded++
		sum.Rows += n
	}

	zap.L().Info("outreach: batch complete",
		zap.Int("keywords", sum.Keywords),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Int("rows", sum.Rows),
	)
	return sum, nil
}
