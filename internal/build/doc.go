// Package build runs one documentation build pass.
//
// An Orchestrator discovers the source documents, loads the crate
// definitions, renders both into the output tree and reconciles the result
// against the artifacts recorded by the previous successful build. All
// execution paths (the build command, the live preview loop, tests) go
// through Orchestrator.Run.
package build
