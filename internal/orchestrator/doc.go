// Package orchestrator is the per-turn conversation engine for the venue
// assistant.
//
// Each turn runs a small state machine: detect whether the input continues a
// prior venue offer, then either resolve the referenced venues and run risk
// assessment, or merge the requirement with recent history, run venue
// discovery, classify the result, and compose the reply. All collaborator
// failures degrade to an apologetic reply; a turn always produces response
// text and a well-formed updated session.
package orchestrator
