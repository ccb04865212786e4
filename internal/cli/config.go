package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groupwarden/groupwarden/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("GroupWarden Config")

		path, err := config.ConfigPath()
		if err != nil {
			fmt.Printf("Config path error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Path: %s\n\n", path)

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Config error: %v\n", err)
			os.Exit(1)
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			fmt.Printf("Config encode error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}
