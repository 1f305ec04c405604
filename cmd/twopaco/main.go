// Command twopaco enumerates the junctions of the compacted de Bruijn graph
// of a set of FASTA or FASTQ files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "twopaco:", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "twopaco",
		Short:         "Find the junctions of a de Bruijn graph in two passes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCommand())
	root.AddCommand(filterInfoCommand())
	return root
}
