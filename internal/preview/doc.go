// Package preview serves the rendered site and rebuilds it while the
// sources are edited.
//
// A Supervisor runs four tasks: a filesystem watcher, a static file server,
// a shutdown signal listener and the request loop. The watcher and the
// signal listener only enqueue requests; the request loop is the single
// consumer and the only task that builds, so two builds never overlap.
package preview
