// Package timestamp turns elapsed recorder time into container media time.
package timestamp

import (
	"math"

	"github.com/eleven-am/movierec/internal/domain"
)

// TicksPerSecond is the tick resolution of variable frame rate timestamps.
const TicksPerSecond = 10_000_000

// MediaTime returns the timestamp for a frame captured elapsed seconds into
// the session. Constant frame rate frames carry no timestamp.
func MediaTime(mode domain.FrameRateMode, elapsed float64) domain.MediaTime {
	if mode != domain.FrameRateVariable {
		return domain.InvalidMediaTime
	}
	return domain.MediaTime{
		Count: int64(math.Round(elapsed * TicksPerSecond)),
		Rate:  domain.MediaRational{Num: TicksPerSecond, Den: 1},
	}
}
