package movierec

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat       = errors.New("output format is not supported")
	ErrUnsupportedResolution   = errors.New("resolution is not supported")
	ErrUnsupportedVFR          = errors.New("variable frame rate is not supported")
	ErrUnsupportedTransparency = errors.New("transparency is not supported")
	ErrMissingRenderInput      = errors.New("recorder has no render input")
	ErrCreateDirectory         = errors.New("unable to create the output directory")
	ErrAlreadyRecording        = errors.New("recorder is already recording")
)

// ErrorKind classifies why BeginRecording failed.
type ErrorKind int

const (
	// PreconditionError: missing inputs, output directory not writable.
	PreconditionError ErrorKind = iota + 1
	// CapabilityError: the backend cannot record these settings. Detected
	// before anything is allocated.
	CapabilityError
	// ConstructionError: the backend failed to build the encoder.
	ConstructionError
)

func (k ErrorKind) String() string {
	switch k {
	case PreconditionError:
		return "precondition"
	case CapabilityError:
		return "capability"
	case ConstructionError:
		return "construction"
	default:
		return "unknown"
	}
}

// RecordingError is returned by BeginRecording.
type RecordingError struct {
	Kind ErrorKind
	Err  error
}

func (e *RecordingError) Error() string {
	return fmt.Sprintf("begin recording (%s): %v", e.Kind, e.Err)
}

func (e *RecordingError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a RecordingError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var re *RecordingError
	return errors.As(err, &re) && re.Kind == kind
}
