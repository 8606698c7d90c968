package planner

// Output encoding shared by every plan.
const (
	Container = "mp3"
	Codec     = "libmp3lame"
	Bitrate   = "192k"

	// SilenceSampleRate is the sample rate of the generated silence source.
	SilenceSampleRate = 44100

	// MaxClips is the number of upload slots a job may fill.
	MaxClips = 6
)

// loudnorm settings that are not configurable per job.
const (
	truePeak      = "-1.0"
	loudnessRange = "11"
)

// ClipRef points at one uploaded clip already written to temp storage.
type ClipRef struct {
	SequenceIndex int // upload slot, 1-based
	TempPath      string
	OriginalName  string
	MimeType      string
}

// PlanInput is one -i argument of the ffmpeg invocation.
type PlanInput struct {
	Index int
	Path  string
}

// Plan describes exactly one ffmpeg run.
type Plan struct {
	JobID  string
	Inputs []PlanInput

	// Graph is the structured filter graph; FilterGraph is its serialized form.
	Graph       Graph
	FilterGraph string

	// Complex reports whether FilterGraph must be passed with -filter_complex
	// and mapped through OutputLabel. Single-clip plans use -filter:a.
	Complex     bool
	OutputLabel string

	OutputPath     string
	OutputFilename string
	Container      string
	Codec          string
	Bitrate        string

	Params Parameters
}

// ConcatInputCount returns the number of streams routed into concat, or 0
// for a plan without a concat stage.
func (p *Plan) ConcatInputCount() int {
	for _, s := range p.Graph.Stages {
		if s.Filter == "concat" {
			return len(s.Inputs)
		}
	}
	return 0
}

// SilenceCopies returns how many labelled silence streams the plan produces.
func (p *Plan) SilenceCopies() int {
	for _, s := range p.Graph.Stages {
		if s.Filter == "asplit" {
			return len(s.Outputs)
		}
	}
	return 0
}
