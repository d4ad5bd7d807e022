package recognize

import (
	"errors"
	"fmt"
)

// Kind classifies where in the pipeline a request failed.
type Kind string

const (
	KindDecode     Kind = "decode_failure"
	KindDetection  Kind = "detection_failure"
	KindNoHand     Kind = "no_hand_detected"
	KindInference  Kind = "inference_failure"
	KindSynthesis  Kind = "synthesis_failure"
	KindStorage    Kind = "storage_failure"
	KindBadRequest Kind = "bad_request"
	KindUnknown    Kind = "unknown"
)

// Failure is a pipeline error tagged with its Kind.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(kind Kind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown if err is not a Failure.
// A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}
