// Package mux runs one ffmpeg process per recording and streams raw video
// frames and interleaved audio samples into it.
package mux

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

type WorkerState int

const (
	WorkerStateIdle WorkerState = iota
	WorkerStateRunning
	WorkerStateDone
	WorkerStateError
)

func (s WorkerState) String() string {
	switch s {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateRunning:
		return "running"
	case WorkerStateDone:
		return "done"
	case WorkerStateError:
		return "error"
	default:
		return "unknown"
	}
}

var ErrNotRunning = errors.New("mux: worker is not running")

// pipeDepth bounds how many writes may be queued per pipe before callers
// block on the encoder.
const pipeDepth = 8

const stderrLimit = 16 << 10

// Worker feeds raw frames, and optionally f32le samples, to one ffmpeg
// process.
type Worker struct {
	binary string
	args   []string
	audio  bool
	logger hclog.Logger

	mu     sync.RWMutex
	state  WorkerState
	err    error
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stderr *limitedBuffer

	video   *pipeWriter
	samples *pipeWriter
	exited  chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewWorker prepares an ffmpeg process. When audio is set the process gets
// a second input pipe on file descriptor 3.
func NewWorker(binary string, args []string, audio bool, logger hclog.Logger) *Worker {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Worker{
		binary: binary,
		args:   args,
		audio:  audio,
		logger: logger,
		state:  WorkerStateIdle,
		stderr: &limitedBuffer{limit: stderrLimit},
	}
}

// Start launches the process. ctx carries values only: the process lives
// until Close, so a caller may start it under a short per-call deadline.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.state != WorkerStateIdle {
		w.mu.Unlock()
		return fmt.Errorf("worker already started")
	}
	w.state = WorkerStateRunning
	w.mu.Unlock()

	ctx, w.cancel = context.WithCancel(context.WithoutCancel(ctx))

	w.cmd = exec.CommandContext(ctx, w.binary, w.args...)
	w.cmd.Stderr = w.stderr

	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		w.setError(err)
		return err
	}

	var audioRead, audioWrite *os.File
	if w.audio {
		audioRead, audioWrite, err = os.Pipe()
		if err != nil {
			w.setError(err)
			return fmt.Errorf("create audio pipe: %w", err)
		}
		w.cmd.ExtraFiles = []*os.File{audioRead}
	}

	if err := w.cmd.Start(); err != nil {
		if audioRead != nil {
			audioRead.Close()
			audioWrite.Close()
		}
		w.setError(err)
		return err
	}

	w.logger.Debug("encoder process started", "pid", w.cmd.Process.Pid, "args", strings.Join(w.args, " "))

	w.video = newPipeWriter(stdin, w.logger.Named("video"))
	if audioRead != nil {
		audioRead.Close()
		w.samples = newPipeWriter(audioWrite, w.logger.Named("audio"))
	}

	w.exited = make(chan struct{})
	go w.run()

	return nil
}

func (w *Worker) run() {
	defer close(w.exited)
	defer w.cancel()

	cmdErr := w.cmd.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()

	if cmdErr != nil {
		w.state = WorkerStateError
		w.err = fmt.Errorf("%s: %w: %s", w.binary, cmdErr, strings.TrimSpace(w.stderr.String()))
		return
	}

	w.state = WorkerStateDone
}

// WriteVideo queues one raw frame for the process stdin.
func (w *Worker) WriteVideo(frame []byte) error {
	if w.State() != WorkerStateRunning {
		return w.notRunning()
	}
	return w.video.write(frame)
}

// WriteSamples queues interleaved samples, encoded as f32le.
func (w *Worker) WriteSamples(samples []float32) error {
	if w.samples == nil || len(samples) == 0 {
		return nil
	}
	if w.State() != WorkerStateRunning {
		return w.notRunning()
	}

	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return w.samples.write(buf)
}

// Close flushes both pipes, closes them so ffmpeg finalizes the container,
// and waits for the process to exit.
func (w *Worker) Close() error {
	if w.State() == WorkerStateIdle || w.exited == nil {
		return w.Err()
	}
	w.closeOnce.Do(func() {
		w.closeErr = w.close()
	})
	return w.closeErr
}

func (w *Worker) close() error {
	var writeErr error
	if w.video != nil {
		writeErr = w.video.close()
	}
	if w.samples != nil {
		if err := w.samples.close(); err != nil && writeErr == nil {
			writeErr = err
		}
	}

	<-w.exited

	if err := w.Err(); err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("write to %s: %w", w.binary, writeErr)
	}
	return nil
}

func (w *Worker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Err returns the process failure, if any.
func (w *Worker) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.err
}

func (w *Worker) notRunning() error {
	if err := w.Err(); err != nil {
		return err
	}
	return ErrNotRunning
}

func (w *Worker) setError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = WorkerStateError
	w.err = err
}

// pipeWriter drains queued buffers into one pipe from its own goroutine so a
// process blocked on one input never stalls writes to the other.
type pipeWriter struct {
	ch     chan []byte
	done   chan struct{}
	logger hclog.Logger

	sendMu sync.Mutex
	closed bool

	mu  sync.Mutex
	err error
}

func newPipeWriter(dst io.WriteCloser, logger hclog.Logger) *pipeWriter {
	p := &pipeWriter{
		ch:     make(chan []byte, pipeDepth),
		done:   make(chan struct{}),
		logger: logger,
	}
	go p.loop(dst)
	return p
}

func (p *pipeWriter) loop(dst io.WriteCloser) {
	defer close(p.done)
	defer dst.Close()

	for buf := range p.ch {
		if p.failed() != nil {
			continue
		}
		if _, err := dst.Write(buf); err != nil {
			p.logger.Error("pipe write failed", "error", err)
			p.mu.Lock()
			p.err = err
			p.mu.Unlock()
		}
	}
}

func (p *pipeWriter) failed() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *pipeWriter) write(buf []byte) error {
	if err := p.failed(); err != nil {
		return err
	}

	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	if p.closed {
		return ErrNotRunning
	}
	p.ch <- buf
	return nil
}

func (p *pipeWriter) close() error {
	p.sendMu.Lock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	p.sendMu.Unlock()

	<-p.done
	return p.failed()
}

type limitedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
