package cmd

import (
	"fmt"
	"os/exec"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ideaspaper/rq/internal/constants"
)

// Module path for go install
const modulePath = "github.com/ideaspaper/rq"

// goInstall builds the command that installs a module version. Replaced in
// tests.
var goInstall = func(moduleWithVersion string) *exec.Cmd {
	return exec.Command("go", "install", moduleWithVersion)
}

// newUpdateCmd creates the self-update command
func newUpdateCmd() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update rq to the latest version",
		Long: `Update rq to the latest version using go install.

Examples:
  # Update to the latest version
  rq update

  # Update to a specific version
  rq update --version v1.0.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, version)
		},
	}

	cmd.Flags().StringVar(&version, "version", "latest", "version to install (e.g., v1.0.0, latest)")
	return cmd
}

func runUpdate(cmd *cobra.Command, version string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Current version: %s\n", constants.Version)
	fmt.Fprintf(out, "Updating to: %s\n\n", version)

	moduleWithVersion := fmt.Sprintf("%s@%s", modulePath, version)
	fmt.Fprintf(out, "Running: go install %s\n\n", moduleWithVersion)

	goCmd := goInstall(moduleWithVersion)
	goCmd.Stdout = out
	goCmd.Stderr = cmd.ErrOrStderr()

	if err := goCmd.Run(); err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}

	fmt.Fprintln(out)
	color.New(color.FgGreen, color.Bold).Fprintf(out, "Successfully updated rq to %s!\n", version)

	return nil
}
