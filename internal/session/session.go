// Package session keeps one source image and re-renders it as settings change.
//
// A Session owns the downscaled pixel buffer of a single image and remembers
// the last artifact it produced successfully. Every conversion is stamped with
// a generation number; a result that finishes after a newer conversion has
// started is discarded instead of being applied. When a conversion fails the
// last-known-good artifact is handed back marked stale, so callers never have
// to blank their display.
//
// Interactive callers use Submit and Updates: bursts of submissions are
// coalesced into the most recent one and run at most once per throttle
// interval.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ironsheep/image-ascii-mcp/internal/ascii"
	"github.com/ironsheep/image-ascii-mcp/internal/config"
	"github.com/ironsheep/image-ascii-mcp/internal/imaging"
	"github.com/ironsheep/image-ascii-mcp/internal/logging"
)

// DefaultThrottle is the minimum spacing between conversions started by the
// Submit worker.
const DefaultThrottle = 32 * time.Millisecond

var (
	// ErrSuperseded is returned when a newer conversion started before this
	// one finished. The result is dropped.
	ErrSuperseded = errors.New("conversion superseded by a newer request")

	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")
)

// Result is one rendered artifact and the settings that produced it.
type Result struct {
	Artifact   *ascii.Artifact
	Settings   config.Settings
	Generation uint64

	// Stale is set when Artifact is the last-known-good output returned in
	// place of a failed conversion.
	Stale bool

	// Warnings lists substitutions Normalize made to the requested settings.
	Warnings []string

	Elapsed time.Duration
}

// Update is delivered on Updates for every submitted conversion that was not
// superseded. Result may be non-nil alongside Err when a stale fallback exists.
type Update struct {
	Result *Result
	Err    error

	// Requested is the settings passed to Submit, before normalization.
	Requested config.Settings
}

type convertFunc func(ascii.PixelBuffer, ascii.Config) (*ascii.Artifact, error)

// Option configures a Session.
type Option func(*Session)

// WithThrottle sets the minimum spacing between worker conversions. Zero
// disables throttling.
func WithThrottle(d time.Duration) Option {
	return func(s *Session) {
		if d < 0 {
			d = 0
		}
		s.throttle = d
	}
}

// WithLogger sets the logger used for conversion diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func withConvertFunc(fn convertFunc) Option {
	return func(s *Session) {
		s.convert = fn
	}
}

// Session converts a single source image on demand. All methods are safe for
// concurrent use.
type Session struct {
	source   ascii.PixelBuffer
	throttle time.Duration
	logger   *log.Logger
	convert  convertFunc

	generation atomic.Uint64

	mu   sync.Mutex
	last *Result

	pendingMu sync.Mutex
	pending   *config.Settings

	wake    chan struct{}
	updates chan Update
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
	wg      sync.WaitGroup

	// workerMu orders worker start against Close.
	workerMu      sync.Mutex
	workerStarted bool
}

// New creates a session over source. The buffer is owned by the session and
// must not be modified afterwards. The Submit worker is started by the first
// Submit; sessions driven only through Convert run no goroutine.
func New(source ascii.PixelBuffer, opts ...Option) (*Session, error) {
	if err := source.Validate(); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		source:   source,
		throttle: DefaultThrottle,
		logger:   logging.Default(),
		convert:  ascii.Convert,
		wake:     make(chan struct{}, 1),
		updates:  make(chan Update, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// NewFromImage downscales img to maxWidth and creates a session over its pixels.
func NewFromImage(img image.Image, maxWidth int, opts ...Option) (*Session, error) {
	return New(imaging.Prepare(img, maxWidth), opts...)
}

// Source returns the dimensions of the buffer being converted.
func (s *Session) Source() (width, height int) {
	return s.source.Width, s.source.Height
}

// Convert runs one conversion synchronously.
//
// On success the result becomes the session's last-known-good output. If a
// newer Convert started meanwhile, ErrSuperseded is returned with a nil result.
// On failure the previous good result is returned with Stale set, together
// with the error; the result is nil only when nothing has succeeded yet.
func (s *Session) Convert(ctx context.Context, settings config.Settings) (*Result, error) {
	gen := s.generation.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.ctx.Err() != nil {
		return nil, ErrClosed
	}

	logger := s.logger.With(logging.FieldGeneration, gen)
	start := time.Now()

	warnings, err := settings.Normalize()
	if err != nil {
		return s.fallback(logger, fmt.Errorf("settings: %w", err))
	}
	for _, w := range warnings {
		logger.Warn("settings adjusted", logging.FieldWarning, w)
	}

	adjusted := imaging.AdjustBrightnessContrast(s.source, settings.Brightness, settings.Contrast)
	art, err := s.convert(adjusted, settings.ConverterConfig())
	if err != nil {
		return s.fallback(logger, fmt.Errorf("convert: %w", err))
	}

	// The converter cannot be interrupted; a cancelled caller just drops the
	// output.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		Artifact:   art,
		Settings:   settings,
		Generation: gen,
		Warnings:   warnings,
		Elapsed:    time.Since(start),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation.Load() {
		logger.Debug("dropping superseded result")
		return nil, ErrSuperseded
	}
	s.last = res

	rows, cols := art.Dimensions()
	logger.Debug("converted",
		logging.FieldRows, rows,
		logging.FieldCols, cols,
		logging.FieldInterval, art.Interval,
		logging.FieldElapsed, res.Elapsed)

	return res, nil
}

// Last returns the last-known-good result, or nil.
func (s *Session) Last() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Session) fallback(logger *log.Logger, err error) (*Result, error) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	if last == nil {
		logger.Warn("conversion failed", logging.FieldError, err)
		return nil, err
	}

	stale := *last
	stale.Stale = true
	logger.Warn("conversion failed, keeping previous output",
		logging.FieldError, err,
		logging.FieldStale, true)
	return &stale, err
}

// Submit queues a conversion with settings, replacing any queued request that
// has not started yet. It never blocks. Submissions after Close are ignored.
func (s *Session) Submit(settings config.Settings) {
	if !s.startWorker() {
		return
	}

	s.pendingMu.Lock()
	s.pending = &settings
	s.pendingMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Updates delivers results for submitted conversions. It is closed by Close.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Close stops the worker and closes Updates. It is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		s.workerMu.Lock()
		s.cancel()
		s.workerMu.Unlock()

		s.wg.Wait()
		close(s.updates)
	})
}

// startWorker launches the worker once. It reports false after Close.
func (s *Session) startWorker() bool {
	s.workerMu.Lock()
	defer s.workerMu.Unlock()

	if s.ctx.Err() != nil {
		return false
	}
	if !s.workerStarted {
		s.workerStarted = true
		s.wg.Add(1)
		go s.worker()
	}
	return true
}

func (s *Session) takePending() *config.Settings {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	p := s.pending
	s.pending = nil
	return p
}

func (s *Session) worker() {
	defer s.wg.Done()

	var lastRun time.Time
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		}

		if wait := time.Until(lastRun.Add(s.throttle)); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-s.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		settings := s.takePending()
		if settings == nil {
			continue
		}
		lastRun = time.Now()

		res, err := s.Convert(s.ctx, *settings)
		if errors.Is(err, ErrSuperseded) {
			continue
		}
		if s.ctx.Err() != nil {
			return
		}

		select {
		case s.updates <- Update{Result: res, Err: err, Requested: *settings}:
		case <-s.ctx.Done():
			return
		}
	}
}
