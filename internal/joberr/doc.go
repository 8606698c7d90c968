// Package joberr defines the failure taxonomy shared by the planner,
// transcoder, job runner and HTTP handlers.
//
// Every failure that ends a merge job is an *Error tagged with a Kind:
//   - validation: the request is unusable (client error, 400)
//   - planning: the filter graph is inconsistent (500)
//   - transcode: ffmpeg failed or wrote nothing (500)
//   - read: the output could not be read back (500)
//   - overloaded: admission refused by the scheduler (503)
//
// Detail carries diagnostics for the logs only; PublicMessage is the text
// that may be written to a response.
package joberr
