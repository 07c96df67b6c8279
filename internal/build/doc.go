// Package build runs one cargo-vitasdk build from start to finish.
//
// BuildService starts the build tool, spawns an artifact pipeline for every
// executable it reports, waits for every pipeline once the build tool has
// exited and reduces the outcomes to a single result. Every spawned pipeline
// is always awaited, whatever failed first, so no packaging tool outlives the
// build.
//
// When several things fail the reported error is chosen by precedence: a
// malformed build output line, then a failed build command, then the first
// failing artifact in the order the build tool reported them.
package build
