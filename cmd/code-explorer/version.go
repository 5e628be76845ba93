package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	codeexplorer "github.com/tianjianchn/code-explorer"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of code-explorer",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("code-explorer version %s\n", strings.TrimSpace(codeexplorer.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
