package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcalabro/twopaco/filter"
)

func filterInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "filter-info FILE",
		Short: "Describe a filter written by run --filter-dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			f, err := filter.UnmarshalBinary(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "capacity:        %d bits (2^%d)\n", f.Cap(), f.Bits())
			fmt.Fprintf(w, "hash functions:  %d\n", f.K())
			fmt.Fprintf(w, "bits set:        %d\n", f.PopCount())
			fmt.Fprintf(w, "fill ratio:      %.4f\n", f.EstimatedFillRatio())
			fmt.Fprintf(w, "false positives: %.6f\n", f.EstimatedFalsePositiveRate())
			return nil
		},
	}
}
