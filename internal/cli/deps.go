package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/wheelhouse/pkg/wheel"
)

// NewDepsCmd creates the deps command.
func NewDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps WHEEL",
		Short: "Show the dependencies a wheel declares",
		Long:  "Read a wheel file's metadata and print the distribution names it depends on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, args[0])
		},
	}

	return cmd
}

func runDeps(cmd *cobra.Command, wheelPath string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	extractor := wheel.NewExtractor()
	deps, err := extractor.Dependencies(cmd.Context(), wheelPath)
	if err != nil {
		return fmt.Errorf("failed to read wheel metadata: %w", err)
	}

	for _, name := range slices.Sorted(maps.Keys(deps)) {
		fmt.Println(name)
	}
	return nil
}
