package store

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/metrics"
	"github.com/sells-group/outreach-cli/internal/model"
)

// Sink receives accepted output rows.
type Sink interface {
	AppendRows(ctx context.Context, rows []model.OutputRow) error
}

type namedSink struct {
	name string
	sink Sink
}

// Fanout writes every batch of rows to each registered sink. A failing sink
// does not stop the others; the errors are joined.
type Fanout struct {
	sinks   []namedSink
	metrics *metrics.Metrics
}

// NewFanout creates an empty Fanout.
func NewFanout(m *metrics.Metrics) *Fanout {
	return &Fanout{metrics: m}
}

// Add registers sink under name. Nil sinks are ignored.
func (f *Fanout) Add(name string, sink Sink) {
	if sink == nil {
		return
	}
	f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
}

// Len returns the number of registered sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

// PartialWriteError reports sinks that rejected rows while at least one
// other sink kept them.
type PartialWriteError struct {
	SavedTo []string
	Err     error
}

func (e *PartialWriteError) Error() string {
	return "store: rows saved to " + strings.Join(e.SavedTo, ", ") + " only: " + e.Err.Error()
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// Saved returns the sinks that kept the rows.
func (e *PartialWriteError) Saved() []string { return e.SavedTo }

// AppendRows implements outreach.Sink. When some sinks fail and others
// succeed the error is a *PartialWriteError.
func (f *Fanout) AppendRows(ctx context.Context, rows []model.OutputRow) error {
	var (
		errs  []error
		saved []string
	)
	for _, s := range f.sinks {
		if err := s.sink.AppendRows(ctx, rows); err != nil {
			zap.L().Error("store: sink append failed", zap.String("sink", s.name), zap.Error(err))
			errs = append(errs, eris.Wrapf(err, "sink %s", s.name))
			continue
		}
		saved = append(saved, s.name)
		f.metrics.Rows(s.name, len(rows))
	}
	if len(errs) == 0 {
		return nil
	}
	if len(saved) > 0 {
		return &PartialWriteError{SavedTo: saved, Err: errors.Join(errs...)}
	}
	return errors.Join(errs...)
}

// RecordRun forwards run bookkeeping to every sink that keeps it.
func (f *Fanout) RecordRun(ctx context.Context, run model.RunRecord) error {
	var errs []error
	for _, s := range f.sinks {
		rr, ok := s.sink.(interface {
			RecordRun(ctx context.Context, run model.RunRecord) error
		})
		if !ok {
			continue
		}
		if err := rr.RecordRun(ctx, run); err != nil {
			errs = append(errs, eris.Wrapf(err, "sink %s", s.name))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if c, ok := s.sink.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
