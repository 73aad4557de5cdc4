package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/wheelhouse/pkg/config"
	"github.com/glorpus-work/wheelhouse/pkg/hooks"
	"github.com/glorpus-work/wheelhouse/pkg/model"
	"github.com/glorpus-work/wheelhouse/pkg/orchestrator"
	"github.com/glorpus-work/wheelhouse/pkg/pip"
	"github.com/glorpus-work/wheelhouse/pkg/pypi"
	"github.com/glorpus-work/wheelhouse/pkg/wheel"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var (
		downloadDir string
		maxAttempts int
		python      string
		noProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "install PACKAGE",
		Short: "Install a package offline, fetching missing wheels on demand",
		Long: `Install a package from locally downloaded wheels. The requested package
and its declared dependencies are downloaded first; any further dependencies
the installer reports as missing are fetched and the install is retried.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), args[0], downloadDir, maxAttempts, python, noProgress)
		},
	}

	cmd.Flags().StringVar(&downloadDir, "download-dir", "", "Directory for downloaded wheels (defaults to config)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Maximum install attempts (0=config default)")
	cmd.Flags().StringVar(&python, "python", "", "Python interpreter used to run pip (defaults to config)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the download progress bar")

	return cmd
}

func runInstall(ctx context.Context, name, downloadDir string, maxAttempts int, python string, noProgress bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Flag values win over config
	if downloadDir == "" {
		downloadDir = cfg.Settings.DownloadDir
	}
	if maxAttempts == 0 {
		maxAttempts = cfg.Settings.MaxAttempts
	}
	if python == "" {
		python = cfg.Settings.Python
	}
	if cfg.Settings.NoProgress {
		noProgress = true
	}

	absDir, err := filepath.Abs(downloadDir)
	if err != nil {
		return fmt.Errorf("failed to resolve download dir: %w", err)
	}

	executor, err := loadHookExecutor(cfg)
	if err != nil {
		return err
	}

	fetcher := pypi.NewManager(pypi.Config{
		IndexURL:     cfg.Settings.IndexURL,
		Timeout:      cfg.Settings.HTTPTimeout,
		ShowProgress: !noProgress && cfg.Settings.OutputFormat != "json",
	})
	installer := pip.NewCLI(python, cfg.Settings.PipExtraArgs...)
	extractor := wheel.NewExtractor()

	orch := orchestrator.New(fetcher, installer, extractor, newEventHooks(cfg))

	hookCtx := hooks.HookContext{PackageName: name, DownloadDir: absDir}
	if err := executor.Execute(hooks.PreInstall, hookCtx); err != nil {
		return fmt.Errorf("pre-install hook failed: %w", err)
	}

	result, err := orch.Run(ctx, model.InstallRequest{Name: name}, orchestrator.Options{
		DownloadDir: absDir,
		MaxAttempts: maxAttempts,
	})
	if err != nil {
		return fmt.Errorf("failed to install %s: %w", name, err)
	}

	hookCtx.Attempts = result.Attempts
	if err := executor.Execute(hooks.PostInstall, hookCtx); err != nil {
		return fmt.Errorf("post-install hook failed: %w", err)
	}

	if err := printResult(name, result, cfg.Settings.OutputFormat); err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("installation of %s failed: %s", name, result.Reason)
	}
	return nil
}

// loadHookExecutor builds a Tengo executor with the configured scripts loaded.
func loadHookExecutor(cfg *config.Config) (*hooks.TengoExecutor, error) {
	executor := hooks.NewTengoExecutor()
	err := hooks.LoadScripts(executor, map[hooks.HookType]string{
		hooks.PreInstall:  cfg.Hooks.PreInstall,
		hooks.PostInstall: cfg.Hooks.PostInstall,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load hook scripts: %w", err)
	}
	return executor, nil
}

// newEventHooks renders orchestrator progress events for humans. JSON output
// stays quiet so the result document is the only thing on stdout.
func newEventHooks(cfg *config.Config) orchestrator.Hooks {
	if cfg.Settings.OutputFormat == "json" {
		return orchestrator.Hooks{}
	}
	if colorDisabled() {
		color.NoColor = true
	}

	phaseColors := map[string]*color.Color{
		"fetching":    color.New(color.FgCyan),
		"seeding":     color.New(color.FgCyan),
		"downloading": color.New(color.FgBlue),
		"installing":  color.New(color.FgYellow),
		"done":        color.New(color.FgGreen, color.Bold),
		"error":       color.New(color.FgRed, color.Bold),
	}

	return orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		c, ok := phaseColors[e.Phase]
		if !ok {
			c = color.New(color.Reset)
		}
		if e.Msg != "" {
			fmt.Printf("%s %s (%s)\n", c.Sprintf("%-11s", e.Phase), e.Name, e.Msg)
		} else {
			fmt.Printf("%s %s\n", c.Sprintf("%-11s", e.Phase), e.Name)
		}
	}}
}

func printResult(name string, result *model.RunResult, format string) error {
	if format == "json" {
		doc := struct {
			Package    string   `json:"package"`
			Success    bool     `json:"success"`
			Reason     string   `json:"reason"`
			Attempts   int      `json:"attempts"`
			Downloaded []string `json:"downloaded"`
		}{
			Package:    name,
			Success:    result.Success(),
			Reason:     result.Reason.String(),
			Attempts:   result.Attempts,
			Downloaded: result.Downloaded,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	if result.Success() {
		fmt.Printf("Installed %s after %d attempt(s)\n", name, result.Attempts)
	} else {
		fmt.Printf("Failed to install %s: %s (after %d attempt(s))\n", name, result.Reason, result.Attempts)
	}
	if len(result.Downloaded) > 0 {
		fmt.Printf("Downloaded: %s\n", strings.Join(result.Downloaded, ", "))
	}
	return nil
}
