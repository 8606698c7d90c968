package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"audio-merger/internal/joberr"
)

// Stage is one filter in a graph: the labelled streams it consumes, the
// filter name with its ordered arguments, and the labels it produces.
type Stage struct {
	Inputs  []string
	Filter  string
	Args    []string
	Outputs []string
}

// String renders the stage in ffmpeg filtergraph syntax.
func (s Stage) String() string {
	var b strings.Builder
	for _, in := range s.Inputs {
		b.WriteString("[" + in + "]")
	}
	b.WriteString(s.Filter)
	if len(s.Args) > 0 {
		b.WriteString("=")
		b.WriteString(strings.Join(s.Args, ":"))
	}
	for _, out := range s.Outputs {
		b.WriteString("[" + out + "]")
	}
	return b.String()
}

// Graph is an ordered list of stages.
//
// A simple graph is a single unlabelled chain suitable for -filter:a. A
// complex graph labels every stream; labels of the form "<n>:a" refer to the
// audio of input n and must be below InputCount.
type Graph struct {
	Stages     []Stage
	Simple     bool
	InputCount int
	Output     string
}

var (
	labelPattern      = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	inputLabelPattern = regexp.MustCompile(`^(\d+):a$`)
)

// Serialize validates the graph and returns its ffmpeg representation.
func (g Graph) Serialize() (string, error) {
	if len(g.Stages) == 0 {
		return "", joberr.Planning("serialize", "filter graph has no stages")
	}
	if g.Simple {
		return g.serializeSimple()
	}
	if err := g.validateLabels(); err != nil {
		return "", err
	}

	parts := make([]string, len(g.Stages))
	for i, s := range g.Stages {
		parts[i] = s.String()
	}
	return strings.Join(parts, ";"), nil
}

func (g Graph) serializeSimple() (string, error) {
	parts := make([]string, len(g.Stages))
	for i, s := range g.Stages {
		if len(s.Inputs) > 0 || len(s.Outputs) > 0 {
			return "", joberr.Planning("serialize", "simple filter %q must not carry stream labels", s.Filter)
		}
		parts[i] = s.String()
	}
	return strings.Join(parts, ","), nil
}

func (g Graph) validateLabels() error {
	produced := make(map[string]int)
	consumed := make(map[string]int)
	usedInputs := make(map[int]bool)

	for _, s := range g.Stages {
		if s.Filter == "" {
			return joberr.Planning("serialize", "stage without filter name")
		}
		for _, in := range s.Inputs {
			if m := inputLabelPattern.FindStringSubmatch(in); m != nil {
				idx, _ := strconv.Atoi(m[1])
				if idx >= g.InputCount {
					return joberr.Planning("serialize", "label [%s] refers to input %d of %d", in, idx, g.InputCount)
				}
				if usedInputs[idx] {
					return joberr.Planning("serialize", "input [%s] consumed more than once", in)
				}
				usedInputs[idx] = true
				continue
			}
			if !labelPattern.MatchString(in) {
				return joberr.Planning("serialize", "invalid label [%s]", in)
			}
			if produced[in] == 0 {
				return joberr.Planning("serialize", "label [%s] consumed before it is produced", in)
			}
			consumed[in]++
		}
		for _, out := range s.Outputs {
			if !labelPattern.MatchString(out) {
				return joberr.Planning("serialize", "invalid label [%s]", out)
			}
			produced[out]++
		}
	}

	if g.Output == "" || produced[g.Output] == 0 {
		return joberr.Planning("serialize", "output label [%s] is never produced", g.Output)
	}

	for label, n := range produced {
		if n != 1 {
			return joberr.Planning("serialize", "label [%s] produced %d times", label, n)
		}
		want := 1
		if label == g.Output {
			want = 0
		}
		if consumed[label] != want {
			return joberr.Planning("serialize", "label [%s] consumed %d times, want %d", label, consumed[label], want)
		}
	}

	for i := 0; i < g.InputCount; i++ {
		if !usedInputs[i] {
			return joberr.Planning("serialize", "input %d is never used", i)
		}
	}
	return nil
}

func inputLabel(i int) string {
	return fmt.Sprintf("%d:a", i)
}
