// Package mediatypes classifies uploaded files by extension and MIME type.
//
// It is a dependency-free leaf that other packages import without risk of
// cycles. Uploads are accepted when they are audio, or a video container
// ffmpeg can extract audio from:
//
//	if !mediatypes.IsAcceptedUpload(header.Filename, header.Header.Get("Content-Type")) {
//	    // reject with a validation error
//	}
//
// [Extension] maps an upload name to a safe temp file extension, and
// [OutputMimeType] is the content type of every merged result.
package mediatypes
