// Package logging provides a simple leveled logging interface for the
// audio merger service.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (ffmpeg command lines, plan graphs)
//   - INFO: General operational messages
//   - WARN: Warning conditions, including non-fatal cleanup failures
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true. ForJob returns a logger whose lines carry
// the job id so concurrent merges can be followed through the log.
package logging
