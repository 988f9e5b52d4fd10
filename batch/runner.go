// Package batch drives whole-directory conversion runs: it walks the
// tree, asks the planner which files need converting, runs encode
// sessions one at a time, verifies the results and retires the sources.
package batch

import (
	"context"
	"errors"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"hevc-convert/config"
	"hevc-convert/encoder"
	"hevc-convert/plan"
	"hevc-convert/progress"
	"hevc-convert/units"
)

// Stats accumulates batch counters for the final summary.
type Stats struct {
	Checked    int
	Skipped    int
	CheckErr   int
	ConvertErr int
	Converted  int
	TotalSaved int64
}

// Progress is a point-in-time view of the current encode session.
type Progress struct {
	Label   string
	Unit    string
	Current float64
	Total   float64
}

// State is the snapshot the TUI polls while a batch runs.
type State struct {
	CurrentFile string
	Description string
	Progress    Progress
	Stats       Stats
	Converted   []string
	Done        bool
	Err         string
}

// Runner executes one batch over a source tree. Safe for one Run call;
// Snapshot may be polled concurrently.
type Runner struct {
	Cfg     config.Config
	Checker *plan.Checker

	// DisplayFactory builds the per-session progress display; nil means
	// no visible display (state snapshots are still maintained).
	DisplayFactory func() progress.Display

	log   zerolog.Logger
	mu    sync.Mutex
	state State
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(cfg config.Config, checker *plan.Checker, log zerolog.Logger) *Runner {
	return &Runner{
		Cfg:     cfg,
		Checker: checker,
		log:     log.With().Str("component", "batch").Logger(),
	}
}

// Snapshot returns the current batch state.
func (r *Runner) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.state
	s.Converted = append([]string(nil), r.state.Converted...)
	return s
}

func (r *Runner) update(f func(*State)) {
	r.mu.Lock()
	f(&r.state)
	r.mu.Unlock()
}

// Run processes every candidate file under cfg's source root. It returns
// the final stats; the error is non-nil only for failures that must stop
// the batch (walk errors, unexpected streaming failures). Per-file
// problems are counted and logged instead.
func (r *Runner) Run(ctx context.Context, root string) (Stats, error) {
	files, err := collectFiles(root)
	if err != nil {
		return r.stats(), err
	}

	defer r.update(func(s *State) { s.Done = true })

	for _, f := range files {
		if ctx.Err() != nil {
			r.log.Info().Msg("stop requested, ending batch")
			break
		}
		stop, err := r.processFile(ctx, f)
		if err != nil {
			r.update(func(s *State) { s.Err = err.Error() })
			return r.stats(), err
		}
		if stop {
			break
		}
	}

	st := r.stats()
	r.log.Info().
		Int("checked", st.Checked).
		Int("skipped", st.Skipped).
		Int("check_err", st.CheckErr).
		Int("convert_err", st.ConvertErr).
		Int("converted", st.Converted).
		Str("total_saved", units.HumanSize(st.TotalSaved)).
		Msg("batch done")
	return st, nil
}

// processFile runs the probe/decide/encode/verify/cleanup flow for one
// file. stop=true ends the batch without an error (limits, exit flag,
// interrupt).
func (r *Runner) processFile(ctx context.Context, f string) (stop bool, err error) {
	log := r.log.With().Str("file", f).Logger()
	log.Debug().Msg("check file")
	r.update(func(s *State) {
		s.CurrentFile = f
		s.Description = ""
		s.Progress = Progress{}
		s.Stats.Checked++
	})

	fi, statErr := os.Stat(f)
	if statErr != nil {
		log.Warn().Err(statErr).Msg("skip unreadable file")
		r.count(func(st *Stats) { st.Skipped++ })
		return false, nil
	}
	oldSize := fi.Size()

	if oldSize < r.Cfg.MinSize {
		log.Debug().Str("size", units.HumanSize(oldSize)).Msg("skip small file")
		r.count(func(st *Stats) { st.Skipped++ })
		return false, nil
	}

	// Files already carrying the output marker are verified, never
	// re-converted.
	if encoder.IsOutput(f) {
		p, cerr := r.Checker.Check(ctx, f)
		if cerr == nil && p.Valid && p.MainCodec == "hevc" {
			log.Debug().Msg("skip converted file")
		} else {
			log.Warn().Msg("skip broken converted file")
		}
		r.count(func(st *Stats) { st.Skipped++ })
		return false, nil
	}

	p, cerr := r.Checker.Check(ctx, f)
	if cerr != nil {
		log.Warn().Err(cerr).Msg("skip file that failed checking")
		r.count(func(st *Stats) { st.CheckErr++ })
		return false, nil
	}
	if !p.Valid {
		log.Warn().Msg("skip non-valid file")
		r.count(func(st *Stats) { st.Skipped++ })
		return false, nil
	}

	out := encoder.OutputPath(f)
	if r.alreadyConverted(ctx, out, p) {
		log.Info().Msg("skip already converted file")
		r.count(func(st *Stats) { st.Skipped++ })
		return false, nil
	}

	if !p.NeedsConvert() {
		if p.MainCodec != "hevc" {
			log.Warn().Str("codec", p.MainCodec).Msg("skip modern-codec file")
		}
		r.count(func(st *Stats) { st.Skipped++ })
		return false, nil
	}

	log.Info().
		Str("size", units.HumanSize(oldSize)).
		Str("info", strings.ReplaceAll(strings.TrimSpace(p.Description), "\n", ", ")).
		Msg("file needs converting")
	r.update(func(s *State) { s.Description = p.Description })

	if r.Cfg.NrConvert == 0 {
		r.log.Warn().Msg("nr_convert is 0, checking only")
		return true, nil
	}

	switch convErr := r.convert(ctx, p, f, out, oldSize); {
	case convErr == nil:
	case errors.Is(convErr, encoder.ErrInterrupted):
		return true, nil
	default:
		var ef *encoder.EncodeFailure
		if errors.As(convErr, &ef) {
			log.Error().Err(convErr).Msg("conversion failed")
			r.count(func(st *Stats) { st.ConvertErr++ })
			return r.reachedLimit(), nil
		}
		// Unexpected streaming failure: the batch must not continue.
		return false, convErr
	}

	if verr := r.verifyAndCleanup(ctx, p, f, out, oldSize); verr != nil {
		log.Warn().Err(verr).Msg("convert error")
		r.count(func(st *Stats) { st.ConvertErr++ })
	}

	if r.reachedLimit() {
		return true, nil
	}
	return r.exitRequested(), nil
}

// alreadyConverted reports whether a valid converted twin of the file
// exists with a matching duration.
func (r *Runner) alreadyConverted(ctx context.Context, out string, src *plan.TranscodePlan) bool {
	if _, err := os.Stat(out); err != nil {
		return false
	}
	converted, err := r.Checker.Check(ctx, out)
	if err != nil || !converted.Valid {
		return false
	}
	return math.Abs(converted.DurationSeconds()-src.DurationSeconds()) < 2
}

// convert runs one encode session for the file.
func (r *Runner) convert(ctx context.Context, p *plan.TranscodePlan, in, out string, oldSize int64) error {
	notifier := progress.NewNotifier(progress.Config{
		Display: r.sessionDisplay(),
		Log:     r.log,
	})
	session := encoder.NewSession(r.Cfg.FFmpeg, notifier, r.log)
	args := encoder.BuildArgs(r.Cfg, p, in, out, oldSize)
	r.log.Info().Str("output", out).Float64("factor", encoder.BitrateFactor(oldSize)).Msg("converting")
	return session.Run(ctx, args)
}

// verifyAndCleanup re-probes the output, books the saved bytes and
// retires the source when it is safe to do so.
func (r *Runner) verifyAndCleanup(ctx context.Context, p *plan.TranscodePlan, f, out string, oldSize int64) error {
	var newSize int64
	if fi, err := os.Stat(out); err == nil {
		newSize = fi.Size()
	}
	saved := oldSize - newSize
	if newSize == 0 {
		saved = 0
	}
	r.count(func(st *Stats) { st.TotalSaved += saved })

	if err := encoder.Verify(ctx, r.Checker, out, p.MainDuration, oldSize); err != nil {
		if saved < 0 {
			r.log.Warn().
				Str("old", units.HumanSize(oldSize)).
				Str("new", units.HumanSize(newSize)).
				Msg("converted file is larger")
		}
		return err
	}

	r.log.Info().
		Str("old", units.HumanSize(oldSize)).
		Str("new", units.HumanSize(newSize)).
		Str("saved", units.HumanSize(saved)).
		Msg("conversion verified")
	r.count(func(st *Stats) { st.Converted++ })
	r.update(func(s *State) { s.Converted = append(s.Converted, out) })

	// High-rate and 4K sources are kept even on success; their converted
	// twins lose information the owner may still want.
	keep := r.Cfg.KeepOld || int(p.MainFPS) > 30 || strings.Contains(p.MainResolution, "3840")
	if keep {
		return nil
	}
	if err := os.Remove(f); err == nil {
		r.log.Info().Str("file", f).Msg("old file removed")
	}
	if err := os.Remove(f + ".jpg"); err == nil {
		r.log.Info().Str("file", f+".jpg").Msg("img file removed")
	}
	return nil
}

func (r *Runner) sessionDisplay() progress.Display {
	var base progress.Display
	if r.DisplayFactory != nil {
		base = r.DisplayFactory()
	}
	return &teeDisplay{runner: r, base: base}
}

func (r *Runner) reachedLimit() bool {
	st := r.stats()
	return r.Cfg.NrConvert > 0 && st.Converted+st.ConvertErr >= r.Cfg.NrConvert
}

// exitRequested consumes the cooperative exit flag file, if present.
func (r *Runner) exitRequested() bool {
	if r.Cfg.ExitFile == "" {
		return false
	}
	if _, err := os.Stat(r.Cfg.ExitFile); err != nil {
		return false
	}
	r.log.Info().Str("flag", r.Cfg.ExitFile).Msg("got exit flag, stopping")
	_ = os.Remove(r.Cfg.ExitFile)
	return true
}

func (r *Runner) stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Stats
}

func (r *Runner) count(f func(*Stats)) {
	r.mu.Lock()
	f(&r.state.Stats)
	r.mu.Unlock()
}

// teeDisplay forwards display calls to the optional base display while
// mirroring them into the runner's snapshot state.
type teeDisplay struct {
	runner *Runner
	base   progress.Display
}

func (d *teeDisplay) Start(label string, total float64, unit string) {
	d.runner.update(func(s *State) {
		s.Progress = Progress{Label: label, Unit: unit, Total: total}
	})
	if d.base != nil {
		d.base.Start(label, total, unit)
	}
}

func (d *teeDisplay) Add(delta float64) {
	d.runner.update(func(s *State) { s.Progress.Current += delta })
	if d.base != nil {
		d.base.Add(delta)
	}
}

func (d *teeDisplay) Close() {
	if d.base != nil {
		d.base.Close()
	}
}
