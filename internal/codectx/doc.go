// Package codectx supplies the source code shown to a model next to a
// finding.
//
// A [Source] resolves file paths to contents. [Files] is a preloaded map and
// [Disk] reads lazily with a size cap. [Window] renders numbered lines around
// the finding and [Snippet] combines that window with the scanner's matched
// snippet in fenced blocks.
package codectx
