// Package engine is the workflow state machine.
//
// Every operation is one short-lived read-compute-write cycle: load the
// active instance from the store, apply a single transition in memory,
// persist the result, return a structured Result. Invalid transitions
// are denied Results, not errors; only write-path I/O failures surface
// as errors.
//
// Transitions:
//
//	start    (no active)            -> running | waiting_checkpoint
//	advance  (running)              -> running | waiting_checkpoint | completed
//	approve  (waiting_checkpoint)   -> running | waiting_checkpoint | completed
//	reject   (waiting_checkpoint)   -> failed_step
//	retry    (failed_step)          -> running | aborted (retries exhausted)
//	skip     (failed_step, or running on an optional step)
//	                                -> running | waiting_checkpoint | completed
//	abort    (any non-terminal)     -> aborted
//
// completed and aborted are terminal; status, list and history are
// read-only and always allowed.
package engine
