package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/movierec/internal/domain"
)

func installFakeFFProbe(t *testing.T, script string) {
	t.Helper()
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ffprobe"), []byte(script), 0755))
	t.Setenv("PATH", tmpDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestProbe_ParsesStreamsAndPackets(t *testing.T) {
	installFakeFFProbe(t, ffprobeScript)

	p := NewProber("", nil)
	report, err := p.Probe(context.Background(), "/recordings/movie.mp4")
	require.NoError(t, err)

	assert.Equal(t, 2.5, report.Duration)
	assert.Equal(t, "mov,mp4,m4a,3gp,3g2,mj2", report.FormatName)

	v := report.Video
	require.NotNil(t, v)
	assert.Equal(t, "h264", v.Codec)
	assert.Equal(t, 1920, v.Width)
	assert.Equal(t, 1080, v.Height)
	assert.Equal(t, "yuv420p", v.PixelFormat)
	assert.Equal(t, domain.MediaRational{Num: 30000, Den: 1001}, v.FrameRate, "exact frame rate")

	require.Len(t, report.Audios, 1)
	a := report.Audios[0]
	assert.Equal(t, "aac", a.Codec)
	assert.Equal(t, 2, a.Channels)
	assert.Equal(t, 48000, a.SampleRate)

	assert.Equal(t, 4, report.Frames)
	assert.Equal(t, []float64{0, 2}, report.Keyframes)

	assert.NoError(t, report.Check(1920, 1080, 4))
	assert.Error(t, report.Check(1280, 720, 0), "dimension mismatch")
	assert.Error(t, report.Check(0, 0, 10), "frame count mismatch")
}

func TestProbe_FailsWhenFFProbeFails(t *testing.T) {
	installFakeFFProbe(t, "#!/bin/sh\necho 'No such file' >&2\nexit 1\n")

	_, err := NewProber("", nil).Probe(context.Background(), "/missing.mp4")
	assert.Error(t, err)
}

func TestReportCheck_NoVideo(t *testing.T) {
	r := &Report{Path: "audio.webm"}
	assert.Error(t, r.Check(0, 0, 0))
}

const ffprobeScript = `#!/bin/sh
if printf "%s" "$*" | grep -q "show_entries"; then
  cat <<'EOF'
0.000000,K__
0.033367,___
0.066733,___
2.000000,K__
