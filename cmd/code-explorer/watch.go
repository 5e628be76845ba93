package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print store updates until interrupted",
	Long: `Subscribe to the marker store and print one line per update. External
edits to the sidecar file show up as reload updates.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		updates, cancel := store.Subscribe()
		defer cancel()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		fmt.Printf("watching %s\n", store.DataFilePath())
		for {
			select {
			case <-sig:
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				fmt.Println(u.String())
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
