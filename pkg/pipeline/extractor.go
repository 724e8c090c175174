package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/athapong/relfeat/pkg/evidence"
	"github.com/athapong/relfeat/pkg/features"
	"github.com/athapong/relfeat/pkg/metrics"
	"github.com/athapong/relfeat/pkg/resolver"
)

// Row holds the feature values of one evidence, aligned with the extractor
// columns
type Row struct {
	EvidenceID string
	Values     []features.Value
}

// Extractor evaluates resolved features over evidences
type Extractor struct {
	features  []*resolver.Feature
	batchSize int
	workers   int
	logger    *logrus.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithBatchSize sets the number of evidences processed per batch
func WithBatchSize(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithWorkers bounds the number of evidences processed concurrently
func WithWorkers(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the extractor logger
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates a new extractor for fs
func NewExtractor(fs []*resolver.Feature, opts ...Option) *Extractor {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	e := &Extractor{
		features:  fs,
		batchSize: 100,
		workers:   4,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Columns returns the feature specs in column order
func (e *Extractor) Columns() []string {
	cols := make([]string, len(e.features))
	for i, f := range e.features {
		cols[i] = f.Spec
	}
	return cols
}

// ExtractOne evaluates every feature on ev
func (e *Extractor) ExtractOne(ev *evidence.Evidence) (Row, error) {
	row := Row{EvidenceID: ev.ID, Values: make([]features.Value, len(e.features))}
	for i, f := range e.features {
		v, err := f.Compute(ev)
		if err != nil {
			metrics.FeatureEvaluations.WithLabelValues(f.Kind.String(), "error").Inc()
			return Row{}, errors.Wrapf(err, "evidence %s feature %s", ev.ID, f.Spec)
		}
		metrics.FeatureEvaluations.WithLabelValues(f.Kind.String(), "success").Inc()
		row.Values[i] = v
	}
	return row, nil
}

// Extract evaluates every feature on every evidence. Rows keep the order of
// evs. Batches are processed one after the other and the evidences of a
// batch concurrently; the first error cancels the remaining work.
func (e *Extractor) Extract(ctx context.Context, evs []*evidence.Evidence) ([]Row, error) {
	e.logger.WithFields(logrus.Fields{
		"evidence_count": len(evs),
		"feature_count":  len(e.features),
	}).Info("Starting feature extraction")

	rows := make([]Row, len(evs))
	for start := 0; start < len(evs); start += e.batchSize {
		end := min(start+e.batchSize, len(evs))
		metrics.EvidenceQueueLength.Set(float64(len(evs) - start))

		began := time.Now()
		err := e.extractBatch(ctx, evs[start:end], rows[start:end])
		elapsed := time.Since(began)

		if err != nil {
			metrics.ExtractionDuration.WithLabelValues("error").Observe(elapsed.Seconds())
			e.logger.WithError(err).WithField("batch_start", start).Error("Failed to extract batch")
			metrics.EvidenceQueueLength.Set(0)
			return nil, err
		}
		metrics.ExtractionDuration.WithLabelValues("success").Observe(elapsed.Seconds())
	}
	metrics.EvidenceQueueLength.Set(0)

	e.logger.WithField("row_count", len(rows)).Info("Feature extraction completed")
	return rows, nil
}

func (e *Extractor) extractBatch(ctx context.Context, batch []*evidence.Evidence, out []Row) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, ev := range batch {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := e.ExtractOne(ev)
			if err != nil {
				return err
			}
			out[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
