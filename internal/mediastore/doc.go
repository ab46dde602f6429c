// Package mediastore owns the on-disk media layout and the save pipeline
// that turns a source file into a permanently stored artifact.
//
// A save is atomic from the caller's perspective: the pipeline stages
// through the temp directory and copies into permanent names only after
// every transform step succeeded, so an aborted save leaves neither
// partial permanent files nor temp residue behind.
package mediastore
