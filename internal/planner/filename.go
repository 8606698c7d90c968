package planner

import (
	"strings"
)

// maxFilenameLength caps the resolved download name.
const maxFilenameLength = 200

// ResolveFilename picks the download name for a job's output.
//
// A non-empty hint is reduced to letters, digits, '_', '-' and '.'; if
// anything other than dots survives it is used with ".mp3" appended unless
// it already ends in ".mp3" (any case). Otherwise a single clip yields
// "normalized_<original name>" and a merge yields "merged_audio_<job id>",
// both ending in ".mp3".
func ResolveFilename(hint, jobID string, clips []ClipRef) string {
	if name := SanitizeFilename(hint); name != "" {
		return withExtension(name)
	}

	if len(clips) == 1 {
		if orig := SanitizeFilename(clips[0].OriginalName); orig != "" {
			return withExtension("normalized_" + orig)
		}
		return withExtension("normalized_audio_" + SanitizeFilename(jobID))
	}
	return withExtension("merged_audio_" + SanitizeFilename(jobID))
}

// SanitizeFilename drops every character outside [A-Za-z0-9_.-]. A result
// made only of dots is treated as empty.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.Trim(out, ".") == "" {
		return ""
	}
	return out
}

func withExtension(name string) string {
	ext := "." + Container
	if !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength-len(ext)] + ext
	}
	return name
}
