package domain

import "fmt"

// MediaRational is an exact fraction. A zero denominator is the explicit
// "unspecified" value and not an error.
type MediaRational struct {
	Num int32
	Den int32
}

// InvalidRational is the unspecified rational, used as the frame rate of
// variable frame rate tracks.
var InvalidRational = MediaRational{}

func (r MediaRational) Valid() bool {
	return r.Den != 0
}

func (r MediaRational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r MediaRational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// MediaTime is a timestamp of Count/Rate seconds.
type MediaTime struct {
	Count int64
	Rate  MediaRational
}

// InvalidMediaTime is attached to frames of constant frame rate tracks; the
// backend paces them from the track frame rate.
var InvalidMediaTime = MediaTime{}

func (t MediaTime) Valid() bool {
	return t.Rate.Valid()
}

// Seconds returns Count/Rate, or 0 for an invalid time.
func (t MediaTime) Seconds() float64 {
	if !t.Rate.Valid() || t.Rate.Num == 0 {
		return 0
	}
	return float64(t.Count) * float64(t.Rate.Den) / float64(t.Rate.Num)
}
