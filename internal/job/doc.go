// Package job carries one merge request through its full lifecycle:
// validate, plan, execute, read the result, and release every temp file.
//
// A [Job] is created when a request is admitted. Uploaded clips are written
// through the job's tracker so each path is registered before the file
// exists. [Processor.Run] executes the job on a scheduler worker and always
// releases the job's files before returning, whatever stage failed.
package job
