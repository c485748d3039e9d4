// Package external bridges the engine to the optional agent
// orchestration tool.
//
// Two concerns live here: resolving a pipeline step into an action hint
// (which skill or agent role the orchestrator should invoke), and
// mirroring instance status into the orchestrator's memory document.
// The mirror is best-effort only; the workflow state on disk stays
// authoritative and sync failures are swallowed by the engine.
package external
