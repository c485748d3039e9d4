// Package store persists workflow state under a project-root-relative
// directory as whole JSON documents.
//
// Layout:
//
//	<projectRoot>/.flowd/workflows/active.json
//	<projectRoot>/.flowd/workflows/<id>/state.json
//	<projectRoot>/.flowd/workflows/<id>/history.json
//
// Reads fail soft: a missing or unparseable file yields an absent value,
// never an error, so the engine treats first runs and corrupted files as
// ordinary recoverable conditions. Writes are whole-document overwrites
// via temp file + rename. No locking — last writer wins (single-operator
// assumption).
package store
