// Package validate checks the deliverability of every address gathered in a
// run, in paced batches, degrading to "unknown" on any failure.
package validate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/emails"
	"github.com/sells-group/outreach-cli/internal/metrics"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/provider"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Options tunes batching and pacing.
type Options struct {
	// BatchSize is the number of addresses per call. Default: 50.
	BatchSize int
	// BatchDelay separates consecutive batches. Default: 4s.
	BatchDelay time.Duration
	Metrics    *metrics.Metrics
	// Sleep waits between batches. Defaults to resilience.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Validator submits addresses to an EmailValidator in sequential batches.
type Validator struct {
	provider provider.EmailValidator
	opts     Options
}

// New creates a Validator. p may be nil when no validation provider is
// configured; every address is then reported unknown/not_checked.
func New(p provider.EmailValidator, opts Options) *Validator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = 0
	}
	if p != nil {
		if bl, ok := p.(provider.BatchLimiter); ok && bl.MaxBatchSize() > 0 && opts.BatchSize > bl.MaxBatchSize() {
			opts.BatchSize = bl.MaxBatchSize()
		}
	}
	if opts.Sleep == nil {
		opts.Sleep = resilience.Sleep
	}
	return &Validator{provider: p, opts: opts}
}

// BatchSize returns the effective batch size.
func (v *Validator) BatchSize() int { return v.opts.BatchSize }

// Chunk splits addrs into consecutive slices of at most size elements.
func Chunk(addrs []string, size int) [][]string {
	if size <= 0 || len(addrs) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(addrs)+size-1)/size)
	for i := 0; i < len(addrs); i += size {
		end := min(i+size, len(addrs))
		chunks = append(chunks, addrs[i:end])
	}
	return chunks
}

// ValidateAll returns one result per unique, well-formed address, keyed by
// lowercase address. It never fails: a failed batch marks its addresses
// unknown/batch_failed and addresses missing from a response are marked
// unknown/not_returned. Cancellation marks the remaining addresses
// unknown/not_checked.
func (v *Validator) ValidateAll(ctx context.Context, addrs []string) map[string]model.ValidationResult {
	unique := dedupe(addrs)
	results := make(map[string]model.ValidationResult, len(unique))
	if len(unique) == 0 {
		return results
	}

	if v.provider == nil || !v.provider.Available() {
		for _, a := range unique {
			results[a] = model.Unknown(a, model.SubStatusNotChecked)
		}
		return results
	}

	asked := indexOf(unique)
	chunks := Chunk(unique, v.opts.BatchSize)
	for i, batch := range chunks {
		if ctx.Err() != nil {
			markAll(results, batch, model.SubStatusNotChecked)
			continue
		}

		got, err := v.provider.ValidateBatch(ctx, batch)
		if err != nil {
			zap.L().Warn("validate: batch failed, marking as unknown",
				zap.String("provider", v.provider.Name()),
				zap.Int("batch", i+1),
				zap.Int("batches", len(chunks)),
				zap.Int("size", len(batch)),
				zap.Error(err),
			)
			v.opts.Metrics.Batch("failed")
			markAll(results, batch, model.SubStatusBatchFailed)
		} else {
			v.opts.Metrics.Batch("ok")
			for _, r := range got {
				key := emails.Key(r.Address)
				if _, ok := asked[key]; !ok {
					continue
				}
				r.Address = key
				results[key] = r
			}
			for _, a := range batch {
				if _, ok := results[a]; !ok {
					results[a] = model.Unknown(a, model.SubStatusNotReturned)
				}
			}
			zap.L().Info("validate: batch validated",
				zap.String("provider", v.provider.Name()),
				zap.Int("batch", i+1),
				zap.Int("batches", len(chunks)),
				zap.Int("size", len(batch)),
			)
		}

		if i < len(chunks)-1 {
			_ = v.opts.Sleep(ctx, v.opts.BatchDelay)
		}
	}
	return results
}

func dedupe(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		key := emails.Key(a)
		if !emails.Valid(key) {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func markAll(results map[string]model.ValidationResult, batch []string, sub string) {
	for _, a := range batch {
		results[a] = model.Unknown(a, sub)
	}
}

func indexOf(addrs []string) map[string]struct{} {
	m := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		m[a] = struct{}{}
	}
	return m
}
