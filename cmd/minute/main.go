package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "minute",
		Short:         "Meeting minutes pipeline: transcribe, summarize and search recorded meetings",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")

	// withApp wires the components for one command run and closes them after.
	withApp := func(run runFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd, a, args)
		}
	}

	root.AddCommand(
		newIngestCmd(withApp),
		newSummarizeCmd(withApp),
		newSearchCmd(withApp),
		newListCmd(withApp),
		newShowCmd(withApp),
		newDeleteCmd(withApp),
		newReindexCmd(withApp),
		newExportCmd(withApp),
		newWatchCmd(withApp),
		newMCPCmd(withApp),
	)
	return root
}

type runFunc func(cmd *cobra.Command, a *app, args []string) error

// appWrapper turns a runFunc into a cobra RunE that owns the app lifetime.
type appWrapper func(run runFunc) func(*cobra.Command, []string) error

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
