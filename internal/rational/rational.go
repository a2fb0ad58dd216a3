// Package rational converts floating point rates into exact fractions.
package rational

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/eleven-am/movierec/internal/domain"
)

// Precision is the fixed denominator used to approximate the fractional
// part of a rate.
const Precision int64 = 10_000_000

// GCD is the recursive Euclidean algorithm on non-negative integers.
func GCD(a, b int64) int64 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a < b {
		return GCD(a, b%a)
	}
	return GCD(b, a%b)
}

// FromFloat returns value as a fraction reduced relative to Precision.
// NaN maps to the unspecified 0/0 and infinities saturate to the int32
// range.
func FromFloat(value float64) domain.MediaRational {
	switch {
	case math.IsNaN(value):
		return domain.MediaRational{}
	case math.IsInf(value, 1):
		return domain.MediaRational{Num: math.MaxInt32, Den: 1}
	case math.IsInf(value, -1):
		return domain.MediaRational{Num: math.MinInt32, Den: 1}
	}

	integral := math.Floor(value)
	frac := int64(math.Round((value - integral) * float64(Precision)))

	gcd := GCD(frac, Precision)
	den := Precision / gcd

	return domain.MediaRational{
		Num: int32(int64(integral)*den + frac/gcd),
		Den: int32(den),
	}
}

// FromInt returns n/1.
func FromInt(n int) domain.MediaRational {
	return domain.MediaRational{Num: int32(n), Den: 1}
}

// Parse reads "num/den" or a plain decimal such as ffprobe reports.
func Parse(s string) (domain.MediaRational, error) {
	s = strings.TrimSpace(s)
	num, den, found := strings.Cut(s, "/")
	if !found {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.MediaRational{}, fmt.Errorf("parse rational %q: %w", s, err)
		}
		return FromFloat(v), nil
	}

	n, err := strconv.ParseInt(num, 10, 32)
	if err != nil {
		return domain.MediaRational{}, fmt.Errorf("parse numerator %q: %w", s, err)
	}
	d, err := strconv.ParseInt(den, 10, 32)
	if err != nil {
		return domain.MediaRational{}, fmt.Errorf("parse denominator %q: %w", s, err)
	}
	return domain.MediaRational{Num: int32(n), Den: int32(d)}, nil
}
