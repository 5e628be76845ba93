package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "Manage stacks",
}

var stackNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new stack and make it active",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		st, err := store.CreateStack(context.Background())
		if err != nil {
			fatal("failed to create stack", err)
		}
		if st == nil {
			fatal("failed to create stack", fmt.Errorf("no folder bound"))
		}
		fmt.Printf("created stack %s\n", st.ID)
	},
}

var stackRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a stack",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.RenameStack(context.Background(), args[0], args[1]); err != nil {
			fatal("failed to rename stack", err)
		}
	},
}

var stackDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stack and its markers",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.DeleteStack(context.Background(), args[0]); err != nil {
			fatal("failed to delete stack", err)
		}
	},
}

var stackSwitchCmd = &cobra.Command{
	Use:   "switch <id>",
	Short: "Make a stack the active one",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.ActivateStack(context.Background(), args[0]); err != nil {
			fatal("failed to switch stack", err)
		}
	},
}

var stackMoveCmd = &cobra.Command{
	Use:   "move <id> <after-id>",
	Short: "Move a stack immediately after another stack",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.MoveStack(context.Background(), args[0], args[1]); err != nil {
			fatal("failed to move stack", err)
		}
	},
}

var stackReverseCmd = &cobra.Command{
	Use:   "reverse <id>",
	Short: "Reverse a stack's marker order, keeping indented runs attached",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.ReverseMarkers(context.Background(), args[0]); err != nil {
			fatal("failed to reverse stack", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(stackCmd)
	stackCmd.AddCommand(stackNewCmd)
	stackCmd.AddCommand(stackRenameCmd)
	stackCmd.AddCommand(stackDeleteCmd)
	stackCmd.AddCommand(stackSwitchCmd)
	stackCmd.AddCommand(stackMoveCmd)
	stackCmd.AddCommand(stackReverseCmd)
}
