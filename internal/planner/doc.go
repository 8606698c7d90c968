// Package planner turns an ordered list of uploaded clips and a handful of
// parameters into a single ffmpeg invocation plan.
//
// Planning is pure: no files are touched and the same inputs always produce
// the same plan. The topology depends on the clip count:
//
//	N = 1   loudnorm only, applied as a simple audio filter
//	N = 2   [0:a][1:a]concat, then loudnorm
//	N > 2   one aevalsrc silence source split into N-2 copies, interleaved
//	        after the second clip: clip1 clip2 sil clip3 sil ... sil clipN
//
// The filter graph is assembled as a list of [Stage] values and serialized by
// [Graph.Serialize], which rejects graphs whose stream labels are not each
// produced once and consumed once.
package planner
