package mux

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func installFakeFFmpeg(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	script := filepath.Join(tmp, "ffmpeg")
	require.NoError(t, os.WriteFile(script, []byte(fakeFFmpegScript), 0755))
	t.Setenv("PATH", tmp+string(os.PathListSeparator)+os.Getenv("PATH"))
	return tmp
}

func TestWorkerStreamsVideoAndAudio(t *testing.T) {
	tmp := installFakeFFmpeg(t)
	out := filepath.Join(tmp, "movie.raw")

	w := NewWorker("", []string{"--audio", out}, true, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, w.Start(ctx))

	frames := [][]byte{[]byte("frame-1|"), []byte("frame-2|"), []byte("frame-3|")}
	for _, f := range frames {
		require.NoError(t, w.WriteVideo(f))
	}
	require.NoError(t, w.WriteSamples([]float32{0.5, -0.25}))

	require.NoError(t, w.Close())
	assert.Equal(t, WorkerStateDone, w.State())

	video, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "frame-1|frame-2|frame-3|", string(video), "frames written out of order or lost")

	audio, err := os.ReadFile(out + ".audio")
	require.NoError(t, err)
	want := make([]byte, 8)
	binary.LittleEndian.PutUint32(want[0:], math.Float32bits(0.5))
	binary.LittleEndian.PutUint32(want[4:], math.Float32bits(-0.25))
	assert.Equal(t, want, audio)

	assert.NoError(t, w.Close(), "second close must be a no-op")
	assert.Error(t, w.WriteVideo([]byte("late")))
}

func TestWorkerOutlivesStartContext(t *testing.T) {
	tmp := installFakeFFmpeg(t)
	out := filepath.Join(tmp, "movie.raw")

	w := NewWorker("", []string{out}, false, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	require.NoError(t, w.Start(ctx))
	cancel()
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, WorkerStateRunning, w.State())
	require.NoError(t, w.WriteVideo([]byte("after-cancel|")))
	require.NoError(t, w.Close())
	assert.Equal(t, WorkerStateDone, w.State())

	video, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "after-cancel|", string(video))
}

func TestWorkerReportsProcessFailure(t *testing.T) {
	tmp := installFakeFFmpeg(t)

	w := NewWorker("ffmpeg", []string{"--fail", filepath.Join(tmp, "out.mp4")}, false, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, w.Start(ctx))

	require.Eventually(t, func() bool {
		return w.State() != WorkerStateRunning
	}, 5*time.Second, 10*time.Millisecond, "worker did not exit")

	err := w.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported codec")
	assert.Equal(t, WorkerStateError, w.State())
}

func TestWorkerStartTwice(t *testing.T) {
	tmp := installFakeFFmpeg(t)
	w := NewWorker("", []string{filepath.Join(tmp, "a.raw")}, false, nil)

	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	assert.Error(t, w.Start(context.Background()))
}

func TestCloseBeforeStart(t *testing.T) {
	w := NewWorker("", nil, false, nil)
	assert.NoError(t, w.Close())
}

const fakeFFmpegScript = `#!/bin/sh
for last; do :; done
if [ "$1" = "--fail" ]; then
  echo "boom: unsupported codec" >&2
  exit 1
fi
if [ "$1" = "--audio" ]; then
  cat <&3 > "$last.audio" &
fi
cat > "$last"
wait
`
