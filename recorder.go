// Package movierec records a live sequence of rendered frames, and
// optionally an interleaved audio stream, into a single video container.
//
// The host owns the render loop. It creates a Session, calls BeginRecording
// once, RecordFrame once per rendered frame, and EndRecording when the
// session ends. Frames may be read back asynchronously; they are always
// written in the order they were requested.
//
// # Architecture
//
// The Recorder is built around collaborators supplied through Options:
//
//   - Registry: selects the encoder backend for the configured output format
//   - RenderInput: provides the pixel readback for each frame
//   - AudioInput: provides the audio samples accumulated between frames
//   - OutputPath: resolves and creates the output file location
//
// # Basic Usage
//
//	registry := encoder.NewRegistry(backend.All(backend.FFmpegOptions{})...)
//	rec := movierec.NewRecorder(movierec.Options{
//	    Registry: registry,
//	    Render:   myRenderInput,
//	    Audio:    myAudioInput,
//	    Output:   output.NewPath(root, "movie_{session}.{ext}", domain.FormatMP4),
//	})
//
//	session := movierec.NewSession(movierec.FrameRateConstant, 30)
//	if err := rec.BeginRecording(ctx, session); err != nil {
//	    log.Fatal(err)
//	}
//	for frame := 0; frame < 300; frame++ {
//	    session.RecorderTime = float64(frame) / 30
//	    rec.RecordFrame(ctx, session)
//	}
//	rec.EndRecording(ctx, session)
//
// # Timing
//
// Constant frame rate sessions convert their frame rate to an exact rational
// once at BeginRecording and let the encoder pace frames. Variable frame rate
// sessions stamp every frame with the recorder time sampled when its capture
// was requested, at a resolution of 100ns.
//
// # Concurrent recorders
//
// Every successfully started session is counted by a process-wide
// concurrency.Monitor. Two or more active sessions produce one warning per
// contention episode. The count is advisory and never limits recording.
package movierec

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/eleven-am/movierec/internal/concurrency"
	"github.com/eleven-am/movierec/internal/config"
	"github.com/eleven-am/movierec/internal/domain"
	"github.com/eleven-am/movierec/internal/encoder"
	"github.com/eleven-am/movierec/internal/rational"
	"github.com/eleven-am/movierec/internal/timestamp"
)

type (
	// Session is one bounded recording episode. The host advances
	// RecorderTime before each RecordFrame.
	Session = domain.Session

	// RenderInput captures the rendered image of the current frame.
	RenderInput = domain.RenderInput

	// AudioInput exposes the audio accumulated since the previous frame.
	AudioInput = domain.AudioInput

	// OutputPath resolves the output file and creates its directory.
	OutputPath = domain.OutputPath

	// AssetNotifier is told when a recording was written into an asset tree.
	AssetNotifier = domain.AssetNotifier

	// Readback is the result of one pixel capture.
	Readback = domain.Readback

	// Settings are the recorder settings, usually loaded with config.Load.
	Settings = config.Settings
)

const (
	FrameRateConstant = domain.FrameRateConstant
	FrameRateVariable = domain.FrameRateVariable
)

// NewSession creates a session with a fresh ID, ready to be started.
func NewSession(mode domain.FrameRateMode, frameRate float64) *Session {
	return domain.NewSession(mode, frameRate)
}

// Options configures the Recorder behavior and dependencies.
type Options struct {
	// Registry is required. Maps the output format to its encoder backend.
	Registry *encoder.Registry

	// Output is required. Resolves the output file of each session.
	Output OutputPath

	// Render provides the frames. A nil Render fails BeginRecording.
	Render RenderInput

	// Audio is optional. Audio is recorded when it is set, preserves audio
	// and the session does not use capture accumulation.
	Audio AudioInput

	// Notifier is optional. Refreshed after a recording lands in an asset
	// tree.
	Notifier AssetNotifier

	// Settings default to config.Default when Format is empty.
	Settings Settings

	// Manager owns the encoder instances. Default: a private manager.
	Manager *encoder.Manager

	// Monitor counts active sessions. Default: concurrency.Default().
	Monitor *concurrency.Monitor

	// Logger is the diagnostic channel. Default: an hclog logger named
	// "movierec".
	Logger hclog.Logger
}

func (o *Options) setDefaults() {
	if o.Settings.Format == "" {
		o.Settings = config.Default()
	}
	if o.Logger == nil {
		o.Logger = hclog.New(&hclog.LoggerOptions{Name: "movierec"})
	}
	if o.Manager == nil {
		o.Manager = encoder.NewManager(o.Logger.Named("encoder"))
	}
	if o.Monitor == nil {
		o.Monitor = concurrency.Default()
	}
}

func (o *Options) validate() {
	if o.Registry == nil {
		panic("movierec: Registry is required")
	}
	if o.Output == nil {
		panic("movierec: Output is required")
	}
}

// State is the lifecycle state of a Recorder.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRecording
	StateEnding
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRecording:
		return "recording"
	case StateEnding:
		return "ending"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Recorder drives one encoder through the sessions it records. A Recorder
// records one session at a time; run several Recorders for concurrent
// sessions.
type Recorder struct {
	opts    Options
	logger  hclog.Logger
	manager *encoder.Manager
	monitor *concurrency.Monitor

	// writeMu serializes frame writes against each other and against
	// encoder disposal. It is always taken before mu.
	writeMu sync.Mutex

	mu       sync.Mutex
	state    State
	session  *Session
	mode     domain.FrameRateMode
	handle   domain.EncoderHandle
	pixFmt   domain.PixelFormat
	audio    bool
	built    bool
	counted  bool
	ended    bool
	epoch    uint64
	queue    timestamp.Queue
	issued   uint64
	written  uint64
	pending  map[uint64]Readback
	inflight int
	waiters  []chan struct{}
}

// NewRecorder creates a Recorder with the given options.
// It panics if required options (Registry, Output) are nil.
func NewRecorder(opts Options) *Recorder {
	opts.validate()
	opts.setDefaults()

	return &Recorder{
		opts:    opts,
		logger:  opts.Logger,
		manager: opts.Manager,
		monitor: opts.Monitor,
		pending: make(map[uint64]Readback),
	}
}

// State returns the lifecycle state of the Recorder.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Handle returns the encoder handle of the current session. It is the zero
// handle once the encoder was disposed.
func (r *Recorder) Handle() domain.EncoderHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle
}

// PixelFormat is the layout the backend expects readbacks in. Valid after a
// successful BeginRecording.
func (r *Recorder) PixelFormat() domain.PixelFormat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pixFmt
}

// BeginRecording validates the inputs and the backend capabilities, then
// constructs the encoder. On failure the session is marked not recording and
// a *RecordingError describes the cause. Capability failures allocate
// nothing; a construction failure leaves an unconstructed handle that
// DisposeEncoder releases.
//
// ctx only bounds encoder construction. The encoder outlives it and is
// finalized by EndRecording, so a per-call timeout is safe here.
func (r *Recorder) BeginRecording(ctx context.Context, session *Session) error {
	r.mu.Lock()
	if r.state != StateIdle && r.state != StateFailed {
		state := r.state
		r.mu.Unlock()
		r.logger.Error("recording not started", "session", session.ID, "state", state)
		return &RecordingError{Kind: PreconditionError, Err: ErrAlreadyRecording}
	}
	r.state = StateStarting
	r.session = session
	r.mode = session.FrameRateMode
	r.built = false
	r.counted = false
	r.ended = false
	r.epoch++
	r.resetFrames()
	r.mu.Unlock()

	settings := r.opts.Settings
	output := r.opts.Output
	path := output.AbsolutePath(session)

	render := r.opts.Render
	if render == nil {
		return r.fail(session, PreconditionError, ErrMissingRenderInput)
	}

	if err := output.CreateDirectory(session); err != nil {
		return r.fail(session, PreconditionError, fmt.Errorf("%w %q: %v", ErrCreateDirectory, path, err))
	}

	backend, err := r.opts.Registry.Lookup(settings.Format)
	if err != nil || !backend.SupportsFormat(settings.Format) {
		return r.fail(session, CapabilityError, fmt.Errorf("%w: the '%s' format is not supported on this platform", ErrUnsupportedFormat, settings.Format))
	}

	encSettings := domain.EncoderSettings{
		Format:          settings.Format,
		Preset:          settings.Preset,
		Quality:         settings.Quality,
		ColorDefinition: settings.ColorDefinition,
		CustomOptions:   settings.CustomOptions,
	}

	width, height := render.OutputWidth(), render.OutputHeight()
	ok, errMsg, warnMsg := backend.SupportsResolution(encSettings, width, height)
	if warnMsg != "" {
		r.logger.Warn(warnMsg, "session", session.ID, "width", width, "height", height)
	}
	if !ok {
		return r.fail(session, CapabilityError, fmt.Errorf("%w: %s", ErrUnsupportedResolution, errMsg))
	}

	if session.FrameRateMode == domain.FrameRateVariable {
		if ok, msg := backend.SupportsVFR(encSettings); !ok {
			return r.fail(session, CapabilityError, fmt.Errorf("%w: %s", ErrUnsupportedVFR, msg))
		}
	}

	alpha := render.Transparent()
	if alpha {
		if ok, msg := backend.SupportsTransparency(encSettings); !ok {
			return r.fail(session, CapabilityError, fmt.Errorf("%w: %s", ErrUnsupportedTransparency, msg))
		}
	}

	frameRate := domain.InvalidRational
	if session.FrameRateMode == domain.FrameRateConstant {
		frameRate = rational.FromFloat(session.FrameRate)
	}

	video := domain.VideoTrackAttributes{
		FrameRate:    frameRate,
		Width:        uint32(width),
		Height:       uint32(height),
		IncludeAlpha: alpha,
		BitrateMode:  encoder.BitrateMode(settings.Quality),
	}
	r.verbose("starting to write video",
		"session", session.ID,
		"width", video.Width,
		"height", video.Height,
		"frame_rate", video.FrameRate.String(),
		"path", path,
	)

	var audio *domain.AudioTrackAttributes
	if in := r.opts.Audio; in != nil && in.PreserveAudio() && !settings.CaptureAccumulation {
		audio = &domain.AudioTrackAttributes{
			SampleRate:   rational.FromInt(in.SampleRate()),
			ChannelCount: uint16(in.ChannelCount()),
		}
		r.verbose("starting to write audio", "session", session.ID, "channels", audio.ChannelCount, "sample_rate", audio.SampleRate.Num)
	} else {
		r.verbose("starting with no audio", "session", session.ID)
	}

	var presetName string
	if presets := backend.Presets(); settings.Preset >= 0 && settings.Preset < len(presets) {
		presetName = presets[settings.Preset].Name
	}

	attrs := encoder.BuildAttributes(encoder.AttributeParams{
		Video:           video,
		Audio:           audio,
		Preset:          settings.Preset,
		PresetName:      presetName,
		ColorDefinition: settings.ColorDefinition,
		CustomOptions:   settings.CustomOptions,
	})

	if !supportsFormat(backend.Formats(), settings.Format) {
		return r.fail(session, CapabilityError, fmt.Errorf("%w: format '%s' is not supported on this platform", ErrUnsupportedFormat, settings.Format))
	}

	r.mu.Lock()
	stale := r.handle
	r.handle = domain.EncoderHandle{}
	r.mu.Unlock()
	if err := r.manager.DestroyIfExists(stale); err != nil {
		r.logger.Warn("destroy previous encoder", "session", session.ID, "error", err)
	}

	handle := r.manager.Register(backend)
	r.mu.Lock()
	r.handle = handle
	r.mu.Unlock()

	if err := r.manager.Construct(ctx, handle, path, attrs); err != nil {
		return r.fail(session, ConstructionError, fmt.Errorf("unable to create encoder: %w", err))
	}

	r.monitor.Increment()

	r.mu.Lock()
	r.state = StateRecording
	r.built = true
	r.counted = true
	r.pixFmt = backend.PixelFormat(alpha)
	r.audio = audio != nil
	r.mu.Unlock()

	r.logger.Debug("recording started", "session", session.ID, "backend", backend.Name(), "path", path)
	return nil
}

// RecordFrame requests the capture of the current frame and appends the
// audio accumulated since the previous frame. It does nothing unless the
// session started properly, which a Recorder without a render input never
// does.
func (r *Recorder) RecordFrame(ctx context.Context, session *Session) {
	r.mu.Lock()
	if r.state != StateRecording || !session.Recording || session != r.session {
		r.mu.Unlock()
		return
	}
	render := r.opts.Render
	seq := r.issued
	r.issued++
	r.inflight++
	r.queue.Push(session.RecorderTime)
	epoch := r.epoch
	handle := r.handle
	audio := r.audio
	r.mu.Unlock()

	render.Capture(ctx, func(rb Readback) {
		r.complete(epoch, seq, rb)
	})

	if audio {
		if samples := r.opts.Audio.Drain(); len(samples) > 0 {
			if err := r.manager.AddSamples(handle, samples); err != nil {
				r.logger.Error("write audio samples", "session", session.ID, "error", err)
			}
		}
	}
}

type queuedFrame struct {
	readback Readback
	elapsed  float64
}

// complete stores a finished capture and writes every frame that is now next
// in request order.
func (r *Recorder) complete(epoch, seq uint64, rb Readback) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	if epoch != r.epoch || (r.state != StateRecording && r.state != StateEnding) {
		r.mu.Unlock()
		r.logger.Debug("dropping capture from a finished session", "sequence", seq)
		return
	}
	r.pending[seq] = rb

	var ready []queuedFrame
	for {
		next, ok := r.pending[r.written]
		if !ok {
			break
		}
		delete(r.pending, r.written)
		r.written++
		elapsed, err := r.queue.Pop()
		if err != nil {
			r.logger.Error("no timestamp for captured frame", "sequence", r.written-1)
			continue
		}
		ready = append(ready, queuedFrame{readback: next, elapsed: elapsed})
	}
	handle := r.handle
	mode := r.mode
	sessionID := r.session.ID
	r.mu.Unlock()

	for _, f := range ready {
		if f.readback.Err != nil {
			r.logger.Error("the rendered image has errors, skipping this frame", "session", sessionID, "error", f.readback.Err)
			continue
		}
		if err := r.manager.AddFrame(handle, f.readback, timestamp.MediaTime(mode, f.elapsed)); err != nil {
			r.logger.Error("write frame", "session", sessionID, "error", err)
			continue
		}
		r.monitor.Check()
	}

	r.mu.Lock()
	r.inflight -= len(ready)
	if r.inflight <= 0 {
		r.releaseWaiters()
	}
	r.mu.Unlock()
}

// EndRecording finishes the session. It waits, bounded by ctx, for captures
// still in flight, releases the session's slot in the concurrency monitor
// and disposes the encoder. Calling it again, or on a session that never
// started, is safe.
func (r *Recorder) EndRecording(ctx context.Context, session *Session) {
	r.mu.Lock()
	wasRecording := r.state == StateRecording
	if wasRecording {
		r.state = StateEnding
	}
	r.mu.Unlock()

	if wasRecording {
		if err := r.waitForCaptures(ctx); err != nil {
			r.logger.Warn("stopped waiting for outstanding captures", "session", session.ID, "error", err)
		}
	}

	r.mu.Lock()
	release := r.counted && !r.ended
	if release {
		r.ended = true
	}
	r.mu.Unlock()

	if release {
		r.monitor.Decrement()
	}

	r.DisposeEncoder(ctx)

	r.mu.Lock()
	if r.state == StateEnding {
		r.state = StateIdle
	}
	r.mu.Unlock()

	if wasRecording {
		r.logger.Debug("recording ended", "session", session.ID)
	}
}

// DisposeEncoder destroys the encoder of the current session, if one was
// constructed, and refreshes the asset store when the output landed in an
// asset tree. Captures that complete afterwards are discarded.
func (r *Recorder) DisposeEncoder(ctx context.Context) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	handle := r.handle
	session := r.session
	built := r.built
	r.handle = domain.EncoderHandle{}
	r.built = false
	r.epoch++
	r.resetFrames()
	r.mu.Unlock()

	if !r.manager.Exists(handle) {
		return
	}
	if err := r.manager.Destroy(handle); err != nil {
		r.logger.Error("destroy encoder", "error", err)
	}

	if built && session != nil && r.opts.Notifier != nil && r.opts.Output.InAssetTree(session) {
		r.opts.Notifier.Refresh(ctx)
	}
}

func (r *Recorder) waitForCaptures(ctx context.Context) error {
	r.mu.Lock()
	if r.inflight <= 0 {
		r.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	r.waiters = append(r.waiters, done)
	r.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) fail(session *Session, kind ErrorKind, err error) error {
	r.mu.Lock()
	r.state = StateFailed
	r.mu.Unlock()

	session.Recording = false
	r.logger.Error("recording failed to start", "session", session.ID, "kind", kind.String(), "error", err)
	return &RecordingError{Kind: kind, Err: err}
}

func (r *Recorder) verbose(msg string, args ...interface{}) {
	if r.opts.Settings.Verbose {
		r.logger.Info(msg, args...)
		return
	}
	r.logger.Debug(msg, args...)
}

// resetFrames clears the capture bookkeeping. Callers hold mu.
func (r *Recorder) resetFrames() {
	r.queue.Reset()
	r.issued = 0
	r.written = 0
	r.inflight = 0
	r.pending = make(map[uint64]Readback)
	r.releaseWaiters()
}

func (r *Recorder) releaseWaiters() {
	for _, ch := range r.waiters {
		close(ch)
	}
	r.waiters = nil
}

func supportsFormat(formats []domain.OutputFormat, format domain.OutputFormat) bool {
	for _, f := range formats {
		if f == format {
			return true
		}
	}
	return false
}
