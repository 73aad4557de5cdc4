package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/wheelhouse/internal/logger"
	"github.com/glorpus-work/wheelhouse/pkg/fsutil"
)

// NewCleanCmd creates the clean command.
func NewCleanCmd() *cobra.Command {
	var downloadDir string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove downloaded wheels",
		Long:  "Empty the download directory so the next install starts from a clean slate",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runClean(downloadDir)
		},
	}

	cmd.Flags().StringVar(&downloadDir, "download-dir", "", "Directory for downloaded wheels (defaults to config)")

	return cmd
}

func runClean(downloadDir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if downloadDir == "" {
		downloadDir = cfg.Settings.DownloadDir
	}
	absDir, err := filepath.Abs(downloadDir)
	if err != nil {
		return fmt.Errorf("failed to resolve download dir: %w", err)
	}

	if err := fsutil.CleanDir(absDir); err != nil {
		return fmt.Errorf("failed to clean download dir: %w", err)
	}

	logger.Info("Download directory cleaned", logger.Fields{"dir": absDir})
	return nil
}
