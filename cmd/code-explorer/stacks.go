package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var stacksJSON bool

var stacksCmd = &cobra.Command{
	Use:   "stacks",
	Short: "List stacks",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		stacks, err := store.Stacks(context.Background())
		if err != nil {
			fatal("failed to list stacks", err)
		}

		if stacksJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(stacks); err != nil {
				fatal("failed to encode JSON", err)
			}
			return
		}

		for _, st := range stacks {
			active := " "
			if st.IsActive {
				active = "*"
			}
			title := st.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("%s %s  %s  (%d markers)\n", active, st.ID, title, len(st.Markers))
		}
	},
}

func init() {
	rootCmd.AddCommand(stacksCmd)
	stacksCmd.Flags().BoolVar(&stacksJSON, "json", false, "Output in JSON format")
}
