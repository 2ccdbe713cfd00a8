// Package logging provides structured logging for the xacro processor.
//
// The package wraps log/slog with:
//   - JSON, text and console formats
//   - level parsing ("debug", "info", "warn", "error")
//   - context-carried fields (run ID, document, macro) added by the
//     *Context methods
//
// Library packages accept a plain *slog.Logger; Logger.Slog hands one out so
// the same handler and level apply everywhere:
//
//	logger, _ := logging.New(logging.Config{Level: "debug", Format: "text"})
//	proc := xacro.NewProcessor(xacro.WithLogger(logger.Slog()))
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "expansion complete") // includes run_id
package logging
