package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ConfigFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:   "connect4",
		Short: "Connect Four session server and related tools",
		Run:   ServerCommand,
	}
	rootCmd.PersistentFlags().StringVarP(&ConfigFlag, "config", "c", "", "Path to the directory containing config.yaml")

	scoresCmd.AddCommand(scoresListCmd)
	scoresCmd.AddCommand(scoresShowCmd)
	scoresCmd.AddCommand(scoresResetCmd)
	rootCmd.AddCommand(scoresCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
