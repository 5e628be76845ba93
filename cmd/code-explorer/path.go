package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the sidecar data file path for the workspace folder",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		fmt.Println(store.DataFilePath())
	},
}

func init() {
	rootCmd.AddCommand(pathCmd)
}
