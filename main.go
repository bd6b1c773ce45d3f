package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"blockterm/app"
	"blockterm/config"
	"blockterm/export"
	"blockterm/log"
	"blockterm/session"
	"blockterm/shellintegration"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	version    = "0.3.0"
	shellFlag  string
	formatFlag string
	outputFlag string
	installFlag bool

	rootCmd = &cobra.Command{
		Use:   "blockterm",
		Short: "Blockterm - a terminal that groups shell output into command blocks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("blockterm must run in an interactive terminal")
			}

			ctx := context.Background()
			log.Initialize()
			defer log.Close()

			return app.Run(ctx, shellFlag)
		},
	}

	shellIntegrationCmd = &cobra.Command{
		Use:   "shell-integration",
		Short: "Print or install the shell integration script",
		Long: "Prints the script that makes the shell emit the prompt markers " +
			"blockterm uses to detect command boundaries. With --install, writes " +
			"the script under the config directory and sources it from the rc file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			shell := shellFlag
			if shell == "" {
				shell = config.GetShell()
			}

			if !installFlag {
				script, err := shellintegration.Script(shell)
				if err != nil {
					return err
				}
				fmt.Print(script)
				return nil
			}

			configDir, err := config.GetConfigDir()
			if err != nil {
				return fmt.Errorf("failed to get config directory: %w", err)
			}
			rcPath, err := shellintegration.Install(shell, filepath.Join(configDir, "shell"))
			if err != nil {
				return err
			}
			fmt.Printf("Shell integration installed; %s now sources it\n", rcPath)
			return nil
		},
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export the stored block history",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			state := config.LoadState()
			storage := session.NewStorage(state)
			blocks, err := storage.LoadBlocks()
			if err != nil {
				return fmt.Errorf("failed to load block history: %w", err)
			}
			if len(blocks) == 0 {
				return fmt.Errorf("no stored blocks to export")
			}

			content, err := export.FormatBlocks(blocks, format)
			if err != nil {
				return err
			}

			if outputFlag == "-" {
				fmt.Print(content)
				return nil
			}
			dir := outputFlag
			if dir == "" {
				dir = config.LoadConfig().ExportDir
			}
			path, err := export.WriteFile(dir, format, content)
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d blocks to %s\n", len(blocks), path)
			return nil
		},
	}

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored block history",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			state := config.LoadState()
			storage := session.NewStorage(state)
			if err := storage.DeleteAll(); err != nil {
				return fmt.Errorf("failed to reset storage: %w", err)
			}
			fmt.Println("Block history has been reset")
			return nil
		},
	}

	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "Print debug information like config paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			cfg := config.LoadConfig()

			configDir, err := config.GetConfigDir()
			if err != nil {
				return fmt.Errorf("failed to get config directory: %w", err)
			}
			configJson, _ := json.MarshalIndent(cfg, "", "  ")

			fmt.Printf("Config: %s\n%s\n", filepath.Join(configDir, config.ConfigFileName), configJson)

			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of blockterm",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("blockterm version %s\n", version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&shellFlag, "shell", "s", "",
		"Shell to spawn in new panes (e.g. '/bin/zsh'). Defaults to $SHELL.")
	shellIntegrationCmd.Flags().BoolVar(&installFlag, "install", false,
		"Install the script and source it from the shell rc file")
	exportCmd.Flags().StringVarP(&formatFlag, "format", "f", "markdown",
		"Export format: markdown, json, html, or text")
	exportCmd.Flags().StringVarP(&outputFlag, "output", "o", "",
		"Output directory, or '-' for stdout. Defaults to the configured export directory.")

	rootCmd.AddCommand(shellIntegrationCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
