package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/xacro/pkg/cli"
	"mercator-hq/xacro/pkg/xacro"
)

var expandFlags struct {
	expansionFlags
	output string
	stats  bool
}

var expandCmd = &cobra.Command{
	Use:   "expand FILE",
	Short: "Expand a document",
	Long: `Expand a xacro document and write the resulting XML.

FILE may be "-" to read the document from stdin; relative includes are then
resolved against the working directory.

Examples:
  # Expand to stdout
  xacro expand robot.urdf.xacro

  # Override arguments, pretty-print and write to a file
  xacro expand robot.urdf.xacro --arg prefix=left_ --indent "  " -o robot.urdf

  # Add include search paths and a package for $(find)
  xacro expand robot.urdf.xacro -I common/ --package arm_description=../arm

  # Expand the document as it was at a Git revision
  xacro expand robot.urdf.xacro --git-rev v1.2.0`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

func init() {
	rootCmd.AddCommand(expandCmd)

	addExpansionFlags(expandCmd, &expandFlags.expansionFlags)
	expandCmd.Flags().StringVarP(&expandFlags.output, "output", "o", "", "write output to this file instead of stdout")
	expandCmd.Flags().BoolVar(&expandFlags.stats, "stats", false, "print expansion statistics to stderr")
}

func runExpand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, &expandFlags.expansionFlags)
	if err != nil {
		return cli.NewCommandError("expand", err)
	}
	defer a.close()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	proc := a.processor()

	var result *xacro.Result
	if args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return cli.NewCommandError("expand", fmt.Errorf("failed to read stdin: %w", err))
		}
		result, err = proc.ExpandBytes(ctx, data, "<stdin>")
		if err != nil {
			return cli.NewCommandError("expand", err)
		}
	} else {
		result, err = proc.ExpandFile(ctx, args[0])
		if err != nil {
			return cli.NewCommandError("expand", err)
		}
	}

	output := result.Output
	if !strings.HasSuffix(output, "\n") {
		output += "\n"
	}

	if expandFlags.output == "" {
		if _, err := io.WriteString(cmd.OutOrStdout(), output); err != nil {
			return cli.NewCommandError("expand", err)
		}
	} else if err := writeFileAtomic(expandFlags.output, []byte(output)); err != nil {
		return cli.NewCommandError("expand", err)
	}

	if expandFlags.stats {
		s := result.Stats
		fmt.Fprintf(cmd.ErrOrStderr(),
			"run %s: %d macro invocations, %d macros, %d properties, %d conditionals, %d includes, max depth %d, cached %v\n",
			result.RunID, s.MacroInvocations, s.MacrosDefined, s.Properties, s.Conditionals, s.Includes, s.MaxDepth, result.Cached)
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place, so
// watchers of path never see a partial document.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".xacro-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
