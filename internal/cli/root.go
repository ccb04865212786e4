// Package cli implements the groupwarden command line interface.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/groupwarden/groupwarden/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"   ____                  __        __            _\n" +
		"  / ___|_ __ ___  _   _ _\\ \\      / /_ _ _ __ __| | ___ _ __\n" +
		" | |  _| '__/ _ \\| | | | '_\\ \\ /\\ / / _` | '__/ _` |/ _ \\ '_ \\\n" +
		" | |_| | | | (_) | |_| | |_) \\ V  V / (_| | | | (_| |  __/ | | |\n" +
		"  \\____|_|  \\___/ \\__,_| .__/ \\_/\\_/ \\__,_|_|  \\__,_|\\___|_| |_|\n" +
		"                       |_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "groupwarden",
	Short: "GroupWarden - WhatsApp group moderation bot",
	Long:  color.CyanString(logo) + "\nA WhatsApp group moderation and administration bot written in Go.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("GroupWarden Version")
		fmt.Printf("Version: %s\n", version)
	},
}
