/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: driver.go
Description: Streaming driver. Frames records from a source, melts them one at a time and
hands each record's entities to a sink. Planned runs either follow a preloaded plan or
sample the head of the source first; a non-seekable source then only gets its sampled
prefix melted.
*/

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kleascm/furnace/pkg/jsonvalue"
	"github.com/kleascm/furnace/pkg/melt"
	"github.com/kleascm/furnace/pkg/sink"
	"github.com/sirupsen/logrus"
)

// Mode selects live or planned melting
type Mode int

const (
	ModeUnplanned Mode = iota
	ModePlanned
)

// String returns the mode name
func (m Mode) String() string {
	if m == ModePlanned {
		return "planned"
	}
	return "unplanned"
}

// Options configure a Driver
type Options struct {
	Config  melt.Config
	Framing Framing
	Mode    Mode

	// Plan is used as is in planned mode; when nil the driver samples the source
	Plan *melt.Plan

	// MaxSkipped aborts the run after this many malformed records. 0 means unlimited.
	MaxSkipped int

	Logger   logrus.FieldLogger
	Reporter Reporter
}

// Driver runs sources through the melting engine
type Driver struct {
	opts     Options
	logger   logrus.FieldLogger
	reporter Reporter
}

// NewDriver validates opts and creates a driver
func NewDriver(opts Options) (*Driver, error) {
	if opts.Plan != nil {
		opts.Mode = ModePlanned
		opts.Config = opts.Plan.Config()
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxSkipped < 0 {
		return nil, &melt.ConfigError{Field: "max_skipped", Reason: "must not be negative"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = NewLoggerReporter(logger)
	}
	return &Driver{opts: opts, logger: logger, reporter: reporter}, nil
}

// run holds the state of one Run call
type run struct {
	*Driver
	ctx    context.Context
	out    sink.Sink
	report *Report
}

// Run melts every record of src into out. The sink is flushed but not closed.
// The report is returned even when the run fails.
func (d *Driver) Run(ctx context.Context, src Source, out sink.Sink) (*Report, error) {
	r := &run{Driver: d, ctx: ctx, out: out, report: newReport(d.opts.Mode, src.Name())}
	start := time.Now()

	err := r.execute(src)
	if ferr := out.Flush(); ferr != nil && err == nil {
		err = &SinkError{Op: "flush", Err: ferr}
	}
	if err != nil && !errors.Is(err, ErrPrefixOnly) {
		r.report.addError(err)
	}
	r.report.Duration = time.Since(start)
	d.reporter.OnRunFinished(r.report)
	return r.report, err
}

func (r *run) execute(src Source) error {
	switch {
	case r.opts.Mode == ModeUnplanned:
		m, err := melt.New(r.opts.Config)
		if err != nil {
			return err
		}
		return r.pass(src, m)

	case r.opts.Plan != nil:
		r.report.PlanRules = r.opts.Plan.Len()
		r.report.PlanSamples = r.opts.Plan.Samples()
		m, err := melt.NewPlanned(r.opts.Plan)
		if err != nil {
			return err
		}
		return r.pass(src, m)

	default:
		return r.sampleAndMelt(src)
	}
}

// sampleAndMelt builds a plan from the head of src, then melts src with it
func (r *run) sampleAndMelt(src Source) error {
	seekable := Seekable(src)
	builder, err := melt.NewBuilder(r.opts.Config)
	if err != nil {
		return err
	}

	records, framing, err := NewRecordReader(src, r.opts.Framing)
	if err != nil {
		return err
	}
	r.report.Framing = framing.String()

	// Without a second pass the sampled records are all the run will ever see
	var (
		prefix    []jsonvalue.Value
		terminal  *MalformedInputError
		exhausted bool
	)
	for !builder.Full() {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		v, err := records.Next()
		if err == io.EOF {
			exhausted = true
			break
		}
		if err != nil {
			var merr *MalformedInputError
			if !errors.As(err, &merr) {
				return err
			}
			if merr.Terminal {
				// the records before the break are still planned and melted
				terminal = merr
				break
			}
			if !seekable {
				if serr := r.skip(err); serr != nil {
					return serr
				}
			}
			continue
		}
		if err := builder.Add(v); err != nil {
			return err
		}
		if !seekable {
			prefix = append(prefix, v)
		}
	}

	if terminal != nil && builder.Samples() == 0 {
		return r.skip(terminal)
	}

	plan, err := builder.Build()
	if err != nil {
		return err
	}
	r.report.PlanRules = plan.Len()
	r.report.PlanSamples = plan.Samples()
	r.logger.WithFields(logrus.Fields{"rules": plan.Len(), "samples": plan.Samples()}).Info("Plan built from sample")

	m, err := melt.NewPlanned(plan)
	if err != nil {
		return err
	}

	if seekable {
		if err := src.(Rewinder).Rewind(); err != nil {
			return fmt.Errorf("failed to rewind %s: %w", src.Name(), err)
		}
		return r.pass(src, m)
	}

	if terminal == nil && !exhausted {
		r.logger.WithField("source", src.Name()).Warn("Source cannot be rewound, melting the sampled prefix only")
	}
	for _, v := range prefix {
		if err := r.meltOne(m, v); err != nil {
			return err
		}
	}
	r.report.PlanFallbacks = m.Stats().PlanFallbacks
	// the stream ended inside the sample, so nothing was left unread
	if terminal != nil {
		return r.skip(terminal)
	}
	if exhausted {
		return nil
	}
	r.report.PrefixOnly = true
	return ErrPrefixOnly
}

// pass melts every record of src with m
func (r *run) pass(src Source, m *melt.Melter) error {
	records, framing, err := NewRecordReader(src, r.opts.Framing)
	if err != nil {
		return err
	}
	r.report.Framing = framing.String()
	defer func() { r.report.PlanFallbacks = m.Stats().PlanFallbacks }()

	for {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		v, err := records.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if serr := r.skip(err); serr != nil {
				return serr
			}
			continue
		}
		if err := r.meltOne(m, v); err != nil {
			return err
		}
	}
}

// skip records a malformed record. It returns nil when the stream can continue.
func (r *run) skip(err error) error {
	var merr *MalformedInputError
	if !errors.As(err, &merr) {
		return err
	}
	r.report.RecordsSkipped++
	r.reporter.OnRecordSkipped(merr)
	if merr.Terminal {
		return merr
	}
	r.report.addError(merr)
	if r.opts.MaxSkipped > 0 && r.report.RecordsSkipped > int64(r.opts.MaxSkipped) {
		return fmt.Errorf("%w: %d skipped (limit %d)", ErrTooManySkipped, r.report.RecordsSkipped, r.opts.MaxSkipped)
	}
	return nil
}

func (r *run) meltOne(m *melt.Melter, v jsonvalue.Value) error {
	entities, err := m.Melt(v)
	if err != nil {
		return err
	}
	if err := r.out.WriteEntities(entities); err != nil {
		return &SinkError{Op: "write", Err: err}
	}
	r.report.addEntities(entities)
	r.reporter.OnRecordMelted(r.report.RecordsMelted, entities)
	return nil
}
