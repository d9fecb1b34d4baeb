// Package analysis loads the definition graph of the crate being documented.
//
// The crate target is located with `cargo metadata` (falling back to
// reading Cargo.toml when cargo is not installed). Definitions come from one
// of the configured backends: rustsrc parses the crate sources with
// tree-sitter, dump decodes a JSON definition dump produced by an external
// tool.
package analysis
