package xacro

import (
	"context"
)

// ExpandFile expands the document at path with default settings and returns
// the serialized output.
func ExpandFile(ctx context.Context, path string) (string, error) {
	result, err := NewProcessor().ExpandFile(ctx, path)
	if err != nil {
		return "", err
	}
	return result.Output, nil
}

// ExpandString expands a document held in a string with default settings.
// Relative includes are resolved against the working directory.
func ExpandString(ctx context.Context, doc string) (string, error) {
	result, err := NewProcessor().ExpandBytes(ctx, []byte(doc), "")
	if err != nil {
		return "", err
	}
	return result.Output, nil
}
