package domain

import "context"

// RenderInput produces the rendered frames. Capture must call done exactly
// once, either before returning or later from any goroutine.
type RenderInput interface {
	OutputWidth() int
	OutputHeight() int
	Transparent() bool
	Capture(ctx context.Context, done func(Readback))
}

// AudioInput exposes the samples accumulated since the last Drain,
// interleaved float32.
type AudioInput interface {
	SampleRate() int
	ChannelCount() int
	PreserveAudio() bool
	Drain() []float32
}

type OutputPath interface {
	AbsolutePath(session *Session) string
	CreateDirectory(session *Session) error
	InAssetTree(session *Session) bool
}

// AssetNotifier is told when a finished recording landed in a
// project-managed asset tree.
type AssetNotifier interface {
	Refresh(ctx context.Context)
}

type NotifierFunc func(ctx context.Context)

func (f NotifierFunc) Refresh(ctx context.Context) { f(ctx) }
