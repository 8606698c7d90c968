package transcoder

import (
	"audio-merger/internal/planner"
)

// BuildArgs constructs the ffmpeg argument slice for plan, without the
// program name. Inputs appear in plan order; complex graphs are mapped
// through the plan's output label.
func BuildArgs(plan *planner.Plan) []string {
	args := make([]string, 0, 16+2*len(plan.Inputs))

	args = append(args, "-hide_banner", "-nostdin", "-y", "-loglevel", "error")

	for _, in := range plan.Inputs {
		args = append(args, "-i", in.Path)
	}

	if plan.Complex {
		args = append(args,
			"-filter_complex", plan.FilterGraph,
			"-map", "["+plan.OutputLabel+"]",
		)
	} else {
		args = append(args, "-filter:a", plan.FilterGraph)
	}

	args = append(args,
		"-vn",
		"-c:a", plan.Codec,
		"-b:a", plan.Bitrate,
		"-f", plan.Container,
		plan.OutputPath,
	)

	return args
}
