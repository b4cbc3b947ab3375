// Package domain defines the core types for focus analysis results.
// A Verdict is the canonical record returned to the browser for every
// analysis request, regardless of which vision backend produced it.
package domain

import "math"

// Label classifies the outcome of a single frame analysis.
type Label string

const (
	// LabelFocused indicates the person is attending to their screen.
	LabelFocused Label = "FOCUSED"

	// LabelDistracted indicates the person is away, looking elsewhere,
	// or holding a phone. Ambiguous output also resolves here; the
	// normalizer never defaults to FOCUSED.
	LabelDistracted Label = "DISTRACTED"

	// LabelSeeing is produced in describe mode, where the model returns
	// a free-text scene description instead of a classification.
	LabelSeeing Label = "SEEING"

	// LabelBusy is a synthetic placeholder served when an inference is
	// already in flight and no prior result exists. It is never cached.
	LabelBusy Label = "BUSY"

	// LabelError is produced when the backend call itself failed.
	LabelError Label = "ERROR"
)

// Reason tokens shared by every deployment. Additional tokens may be
// allowed per deployment through the Vocabulary.
const (
	ReasonFocused    = "focused"
	ReasonPhone      = "phone"
	ReasonNotLooking = "not_looking"
	ReasonNoPerson   = "no_person"
	ReasonScene      = "scene"
	ReasonUnknown    = "unknown"
	ReasonBusy       = "busy"
	ReasonError      = "error"
)

// MaxDetailLen bounds the human-readable detail string. Longer text is
// truncated with an ellipsis marker; the full text stays in Raw.
const MaxDetailLen = 200

// Signals holds the per-frame boolean observations returned by the
// structured-output backends. They feed the reason derivation rule.
type Signals struct {
	PersonPresent   bool `json:"person_present"`
	LookingAtCamera bool `json:"looking_at_camera"`
	PhoneVisible    bool `json:"phone_visible"`
}

// Verdict is the canonical analysis result.
// It is published as an immutable snapshot: concurrent readers receive
// a copy, never a shared mutable record.
type Verdict struct {
	// Label is the classification outcome.
	Label Label `json:"label"`

	// Distracted is the boolean form of Label. When Signals are present
	// it equals !person_present || !looking_at_camera || phone_visible.
	Distracted bool `json:"distracted"`

	// Reason is a token from the deployment's vocabulary.
	Reason string `json:"reason"`

	// Detail is a short human-readable explanation, bounded by
	// MaxDetailLen.
	Detail string `json:"detail,omitempty"`

	// Signals carries the raw boolean observations when the backend
	// returned structured output.
	Signals *Signals `json:"signals,omitempty"`

	// Elapsed is the inference wall-clock time in seconds, rounded to
	// two decimals. It is 0 for errors and absent for BUSY placeholders.
	Elapsed *float64 `json:"elapsed,omitempty"`

	// Raw preserves the unparsed backend output for diagnostics.
	Raw string `json:"raw,omitempty"`

	// Stale is true when this verdict was served from the cache instead
	// of being freshly computed for the current request.
	Stale bool `json:"stale"`
}

// Seconds rounds d to two decimal places and returns a pointer suitable
// for Verdict.Elapsed.
func Seconds(d float64) *float64 {
	v := math.Round(d*100) / 100
	return &v
}

// BusyVerdict returns the placeholder served while another inference
// holds the gate and no prior result exists. Elapsed and Raw are left
// unset on purpose.
func BusyVerdict() Verdict {
	return Verdict{
		Label:  LabelBusy,
		Reason: ReasonBusy,
		Detail: "model busy",
		Stale:  true,
	}
}

// ErrorVerdict converts a backend failure into data. The endpoint
// always answers 200 with a Verdict shape; transport errors never leak
// to the client.
func ErrorVerdict(detail string) Verdict {
	return Verdict{
		Label:   LabelError,
		Reason:  ReasonError,
		Detail:  Truncate(detail),
		Elapsed: Seconds(0),
	}
}

// Truncate bounds s to MaxDetailLen runes, marking the cut with "...".
func Truncate(s string) string {
	if len(s) <= MaxDetailLen {
		return s
	}
	return s[:MaxDetailLen-3] + "..."
}
