// Package source provides document readers for the xacro pipeline.
//
// The pipeline never touches the filesystem directly: every document and
// include is read through a Reader. Three implementations are provided:
//
//   - OS reads from the local filesystem
//   - Memory serves documents from a map (tests, embedded documents)
//   - Git reads files as of a revision of a local Git repository
//
// All readers report missing files with an error matching ErrNotFound:
//
//	data, err := reader.ReadFile(ctx, "robot.xacro")
//	if errors.Is(err, source.ErrNotFound) {
//	    ...
//	}
package source
