package planner

import (
	"math"
	"strconv"
	"strings"

	"audio-merger/internal/joberr"
)

// Built-in parameter defaults.
const (
	DefaultSilenceSeconds = 1.0
	DefaultTargetLUFS     = -16.0

	// MaxSilenceSeconds bounds the gap inserted between clips.
	MaxSilenceSeconds = 600.0

	// loudnorm accepts integrated loudness targets in this range.
	MinTargetLUFS = -70.0
	MaxTargetLUFS = -5.0
)

// Parameters are the resolved, validated knobs of one job.
type Parameters struct {
	SilenceDurationSeconds float64
	TargetLoudnessLUFS     float64
	OutputFilenameHint     string
}

// Options carries the raw, possibly absent, request values. A nil pointer
// means the field was not supplied.
type Options struct {
	SilenceDurationSeconds *float64
	TargetLoudnessLUFS     *float64
	OutputFilenameHint     string
}

// Defaults are applied to absent Options fields.
type Defaults struct {
	SilenceDurationSeconds float64
	TargetLoudnessLUFS     float64
}

// BuiltinDefaults returns the built-in defaults.
func BuiltinDefaults() Defaults {
	return Defaults{
		SilenceDurationSeconds: DefaultSilenceSeconds,
		TargetLoudnessLUFS:     DefaultTargetLUFS,
	}
}

// ResolveParameters fills absent options from d and validates the result.
func ResolveParameters(opts Options, d Defaults) (Parameters, error) {
	p := Parameters{
		SilenceDurationSeconds: d.SilenceDurationSeconds,
		TargetLoudnessLUFS:     d.TargetLoudnessLUFS,
		OutputFilenameHint:     opts.OutputFilenameHint,
	}
	if opts.SilenceDurationSeconds != nil {
		p.SilenceDurationSeconds = *opts.SilenceDurationSeconds
	}
	if opts.TargetLoudnessLUFS != nil {
		p.TargetLoudnessLUFS = *opts.TargetLoudnessLUFS
	}

	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// Validate checks the numeric ranges.
func (p Parameters) Validate() error {
	s := p.SilenceDurationSeconds
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 || s > MaxSilenceSeconds {
		return joberr.Validation("parameters", "silenceDuration must be between 0 and %g seconds", MaxSilenceSeconds)
	}

	l := p.TargetLoudnessLUFS
	if math.IsNaN(l) || math.IsInf(l, 0) || l < MinTargetLUFS || l > MaxTargetLUFS {
		return joberr.Validation("parameters", "targetLufs must be between %g and %g", MinTargetLUFS, MaxTargetLUFS)
	}
	return nil
}

// ParseOptions converts raw form values into Options. Empty strings are
// treated as absent; anything else must parse as a finite number.
func ParseOptions(silence, lufs, hint string) (Options, error) {
	opts := Options{OutputFilenameHint: hint}

	if s := strings.TrimSpace(silence); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Options{}, joberr.Validation("parameters", "silenceDuration must be a number")
		}
		opts.SilenceDurationSeconds = &v
	}

	if s := strings.TrimSpace(lufs); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Options{}, joberr.Validation("parameters", "targetLufs must be a number")
		}
		opts.TargetLoudnessLUFS = &v
	}

	return opts, nil
}
