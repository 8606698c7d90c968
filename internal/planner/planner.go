package planner

import (
	"strconv"

	"audio-merger/internal/joberr"
	"audio-merger/internal/tempfs"
)

// Stream labels used by complex graphs.
const (
	labelConcat  = "cat"
	labelOut     = "out"
	labelSilence = "sil"
)

// Build produces the plan for one job. It validates the clip list and
// parameters, assembles the filter graph for the clip count, and derives
// the output path under tempDir from jobID. The output path is not
// registered anywhere; the caller tracks it before running the plan.
func Build(jobID string, clips []ClipRef, params Parameters, tempDir string) (*Plan, error) {
	if len(clips) == 0 {
		return nil, joberr.Validation("plan", "no input clips")
	}
	if len(clips) > MaxClips {
		return nil, joberr.Validation("plan", "at most %d clips may be merged, got %d", MaxClips, len(clips))
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	inputs := make([]PlanInput, len(clips))
	for i, c := range clips {
		if c.TempPath == "" {
			return nil, joberr.Validation("plan", "clip %d has no stored file", i+1)
		}
		if i > 0 && c.SequenceIndex <= clips[i-1].SequenceIndex {
			return nil, joberr.Planning("plan", "clips out of upload order at position %d", i+1)
		}
		inputs[i] = PlanInput{Index: i, Path: c.TempPath}
	}

	var graph Graph
	if len(clips) == 1 {
		graph = normalizeGraph(params)
	} else {
		graph = mergeGraph(len(clips), params)
	}

	filter, err := graph.Serialize()
	if err != nil {
		return nil, err
	}

	return &Plan{
		JobID:          jobID,
		Inputs:         inputs,
		Graph:          graph,
		FilterGraph:    filter,
		Complex:        !graph.Simple,
		OutputLabel:    graph.Output,
		OutputPath:     tempfs.PathFor(tempDir, tempfs.DefaultPrefix, jobID, "output", "."+Container),
		OutputFilename: ResolveFilename(params.OutputFilenameHint, jobID, clips),
		Container:      Container,
		Codec:          Codec,
		Bitrate:        Bitrate,
		Params:         params,
	}, nil
}

func loudnormStage(params Parameters, in, out string) Stage {
	s := Stage{
		Filter: "loudnorm",
		Args: []string{
			"I=" + formatFloat(params.TargetLoudnessLUFS),
			"TP=" + truePeak,
			"LRA=" + loudnessRange,
		},
	}
	if in != "" {
		s.Inputs = []string{in}
	}
	if out != "" {
		s.Outputs = []string{out}
	}
	return s
}

// normalizeGraph is the single-clip graph: loudness normalization only.
func normalizeGraph(params Parameters) Graph {
	return Graph{
		Stages:     []Stage{loudnormStage(params, "", "")},
		Simple:     true,
		InputCount: 1,
	}
}

// mergeGraph concatenates n >= 2 inputs. Silence goes between every pair
// after the second clip, never between clip 1 and clip 2.
func mergeGraph(n int, params Parameters) Graph {
	var stages []Stage
	var silence []string

	if copies := n - 2; copies > 0 {
		stages = append(stages, Stage{
			Filter: "aevalsrc",
			Args: []string{
				"0",
				"s=" + strconv.Itoa(SilenceSampleRate),
				"d=" + formatFloat(params.SilenceDurationSeconds),
			},
			Outputs: []string{labelSilence},
		})

		silence = make([]string, copies)
		for i := range silence {
			silence[i] = labelSilence + strconv.Itoa(i)
		}
		stages = append(stages, Stage{
			Inputs:  []string{labelSilence},
			Filter:  "asplit",
			Args:    []string{strconv.Itoa(copies)},
			Outputs: silence,
		})
	}

	concatInputs := make([]string, 0, n+len(silence))
	concatInputs = append(concatInputs, inputLabel(0), inputLabel(1))
	for i := 2; i < n; i++ {
		concatInputs = append(concatInputs, silence[i-2], inputLabel(i))
	}

	stages = append(stages,
		Stage{
			Inputs:  concatInputs,
			Filter:  "concat",
			Args:    []string{"n=" + strconv.Itoa(len(concatInputs)), "v=0", "a=1"},
			Outputs: []string{labelConcat},
		},
		loudnormStage(params, labelConcat, labelOut),
	)

	return Graph{
		Stages:     stages,
		InputCount: n,
		Output:     labelOut,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
