// Xacro expands xacro macro documents (typically robot descriptions) into
// plain XML.
//
// Usage:
//
//	# Expand a document to stdout
//	xacro expand robot.urdf.xacro
//
//	# Override arguments and write to a file
//	xacro expand robot.urdf.xacro --arg prefix=left_ -o robot.urdf
//
//	# Expand a document as it was at a Git revision
//	xacro expand robot.urdf.xacro --git-rev v1.2.0
//
//	# Check many documents, continuing after failures
//	xacro lint --dir descriptions/
//
//	# Re-expand whenever the document or an included file changes
//	xacro watch robot.urdf.xacro -o robot.urdf
//
//	# Prune the result cache
//	xacro cache prune
package main

func main() {
	Execute()
}
