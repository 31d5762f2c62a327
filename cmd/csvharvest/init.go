package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/csvharvest/internal/config"
)

// templatePath is the config template inside configTemplate.
const templatePath = "templates/csvharvest.yaml"

//go:embed templates/csvharvest.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented .csvharvest configuration file",
		Long: `Init writes a commented .csvharvest file with the listing page, link
prefix, politeness delay and timeouts, and an empty "columns:" section for
extra header spellings. Every key is optional; remove what you do not need.

Examples:
  # Create .csvharvest in current directory
  csvharvest init

  # Create config file at a specific path
  csvharvest init -o myconfig.yaml

  # Force overwrite existing file
  csvharvest init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Where to write the configuration file")
	cmd.Flags().BoolP("force", "f", false,
		"Replace an existing file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeConfigTemplate(outputPath, force); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), `Created configuration file: %s

Edit this file to configure:
  - The listing page to harvest
  - Download and data directories
  - Extra column header spellings
`, outputPath)
	return nil
}

// writeConfigTemplate writes the embedded template to path, creating parent
// directories. An existing file is only replaced when force is set.
func writeConfigTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}
