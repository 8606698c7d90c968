/*
Package streaming writes finished response bodies with timeout protection.

# Overview

Slow or disconnected clients can hold a handler goroutine, and the payload it
is sending, indefinitely. [TimeoutWriter] wraps an http.ResponseWriter and
bounds each chunk with a write deadline set through http.ResponseController,
so a stalled connection fails the write instead of blocking the handler.

# Usage

Merged audio is fully buffered before the response starts, so the common entry
point is [WritePayload], which sets Content-Type, Content-Length and an
attachment Content-Disposition before writing:

	err := streaming.WritePayload(r.Context(), w, streaming.Payload{
		Data:        result.Data,
		Filename:    result.Filename,
		ContentType: result.ContentType,
	}, streaming.DefaultTimeoutWriterConfig())
	if err != nil && !errors.Is(err, streaming.ErrClientGone) {
		logging.Warn("response write failed: %v", err)
	}

# Errors

  - [ErrWriteTimeout]: a chunk missed its deadline or MaxDuration elapsed
  - [ErrClientGone]: the request context was canceled
  - [ErrStreamCanceled]: the writer was closed before the write

Writers that do not support deadlines, such as httptest.ResponseRecorder, are
written without one.
*/
package streaming
