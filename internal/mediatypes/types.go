package mediatypes

import (
	"mime"
	"path/filepath"
	"strings"
)

// FileType represents the kind of an uploaded file.
type FileType string

const (
	// FileTypeAudio represents an audio file.
	FileTypeAudio FileType = "audio"
	// FileTypeVideo represents a video container whose audio track can be used.
	FileTypeVideo FileType = "video"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// OutputMimeType is the content type of every merged result.
const OutputMimeType = "audio/mpeg"

// AudioExtensions maps file extensions to whether they are accepted audio formats.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".wave": true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".wma":  true,
	".aif":  true,
	".aiff": true,
	".amr":  true,
	".webm": true,
}

// VideoExtensions maps file extensions to video containers ffmpeg can pull audio from.
var VideoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".mov": true,
	".avi": true,
	".m4v": true,
	".3gp": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Audio
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".wave": "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wma":  "audio/x-ms-wma",
	".aif":  "audio/aiff",
	".aiff": "audio/aiff",
	".amr":  "audio/amr",
	".webm": "audio/webm",

	// Videos
	".mp4": "video/mp4",
	".mkv": "video/x-matroska",
	".mov": "video/quicktime",
	".avi": "video/x-msvideo",
	".m4v": "video/x-m4v",
	".3gp": "video/3gpp",
}

// GetFileType returns the FileType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".wav").
func GetFileType(ext string) FileType {
	if AudioExtensions[ext] {
		return FileTypeAudio
	}
	if VideoExtensions[ext] {
		return FileTypeVideo
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a given file extension, or
// "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if m, ok := MimeTypes[ext]; ok {
		return m
	}
	return "application/octet-stream"
}

// IsAcceptedUpload reports whether an upload looks like something ffmpeg can
// take audio from. Either the declared content type (audio/* or video/*) or
// the file extension must say so; browsers often send
// application/octet-stream for perfectly good files.
func IsAcceptedUpload(filename, contentType string) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if strings.HasPrefix(mt, "audio/") || strings.HasPrefix(mt, "video/") {
			return true
		}
	}
	return GetFileType(Extension(filename)) != FileTypeOther
}

// Extension returns the lowercase extension of filename when it is a known
// upload format, or ".bin" otherwise. It is safe to use in temp file names.
func Extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if GetFileType(ext) == FileTypeOther {
		return ".bin"
	}
	return ext
}
