/*
Package cli provides command-line helpers for the xacro command.

Exit codes:

Failures are wrapped in CommandError. ExitCode maps an error to the process
exit status: 1 for expansion errors, 2 for usage and configuration errors,
3 for I/O errors.

	if err := cmd.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}

Output Formatting:

Lint reports can be rendered as text, JSON or CSV:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(len(files))
	for _, f := range files {
		progress.Done(f, lint(f))
	}
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
