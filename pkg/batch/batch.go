// Package batch runs the ghosting pipeline over many acquisitions.
package batch

import (
	"context"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"mrighosting/internal/models"
	"mrighosting/pkg/ghosting"
)

// Loader decodes one acquisition from a source path
type Loader func(path string) (*models.Acquisition, error)

// Outcome is the result for one source. Err is set when loading, analysis
// or the result hook failed; Acquisition is nil when loading failed.
type Outcome struct {
	Path        string
	Acquisition *models.Acquisition
	Result      *ghosting.Result
	Err         error
}

// Key returns the acquisition key, or the path when loading failed
func (o Outcome) Key() string {
	if o.Acquisition == nil {
		return o.Path
	}
	return o.Acquisition.Key()
}

// Processor fans acquisitions out over a bounded number of goroutines.
// Each pipeline run is independent, so a failure is recorded in its outcome
// and the rest of the batch carries on.
type Processor struct {
	pipeline    *ghosting.Pipeline
	load        Loader
	concurrency int
	logger      *logrus.Logger

	// onResult is called after each successful analysis
	onResult func(Outcome) error
}

// Option configures a Processor
type Option func(*Processor)

// WithConcurrency sets how many acquisitions are processed at once
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the logger used for per-acquisition progress
func WithLogger(logger *logrus.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithResultHook registers fn to run after each successful analysis, for
// example to write an overlay. An error from fn is stored in the outcome.
// fn may be called from several goroutines at once.
func WithResultHook(fn func(Outcome) error) Option {
	return func(p *Processor) {
		p.onResult = fn
	}
}

// NewProcessor creates a batch processor around pipeline and load
func NewProcessor(pipeline *ghosting.Pipeline, load Loader, opts ...Option) *Processor {
	p := &Processor{
		pipeline:    pipeline,
		load:        load,
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logrus.StandardLogger()
	}
	return p
}

// Process analyses every path and returns one outcome per path in input
// order. The error is non-nil only when ctx is cancelled.
func (p *Processor) Process(ctx context.Context, paths []string) ([]Outcome, error) {
	p.logger.WithFields(logrus.Fields{
		"acquisitions": len(paths),
		"concurrency":  p.concurrency,
	}).Info("starting ghosting batch")
	start := time.Now()

	outcomes := make([]Outcome, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				outcomes[i] = Outcome{Path: path, Err: ctx.Err()}
				return ctx.Err()
			default:
			}

			// each goroutine owns its slot
			outcomes[i] = p.processOne(path)
			return nil
		})
	}

	err := g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	p.logger.WithFields(logrus.Fields{
		"acquisitions": len(paths),
		"failed":       failed,
		"elapsed":      time.Since(start).String(),
	}).Info("ghosting batch complete")

	return outcomes, err
}

func (p *Processor) processOne(path string) Outcome {
	out := Outcome{Path: path}
	log := p.logger.WithField("path", path)

	acq, err := p.load(path)
	if err != nil {
		log.WithError(err).Warn("skipping unreadable acquisition")
		out.Err = err
		return out
	}
	out.Acquisition = acq
	log = log.WithField("key", acq.Key())

	result, err := p.pipeline.ComputeAcquisition(acq)
	if err != nil {
		log.WithError(err).Warn("ghosting analysis failed")
		out.Err = err
		return out
	}
	out.Result = result

	if p.onResult != nil {
		if err := p.onResult(out); err != nil {
			log.WithError(err).Warn("result hook failed")
			out.Err = err
			return out
		}
	}

	log.WithField("ghosting", result.Ghosting).Debug("acquisition analysed")
	return out
}

// Summary maps acquisition keys to ghosting percentages for every
// successful outcome
func Summary(outcomes []Outcome) map[string]float64 {
	results := make(map[string]float64, len(outcomes))
	for _, o := range outcomes {
		if o.Err == nil && o.Result != nil {
			results[o.Key()] = o.Result.Ghosting
		}
	}
	return results
}
