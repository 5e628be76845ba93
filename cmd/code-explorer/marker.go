package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tianjianchn/code-explorer/pkg/core"
)

var markerMoveToStack bool

var markerCmd = &cobra.Command{
	Use:   "marker",
	Short: "Manage individual markers",
}

var markerTitleCmd = &cobra.Command{
	Use:   "title <id> <title>",
	Short: "Set a marker's title",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.SetMarkerTitle(context.Background(), args[0], args[1]); err != nil {
			fatal("failed to set title", err)
		}
	},
}

var markerIconCmd = &cobra.Command{
	Use:   "icon <id> <icon>",
	Short: "Set a marker's icon",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.SetMarkerIcon(context.Background(), args[0], args[1]); err != nil {
			fatal("failed to set icon", err)
		}
	},
}

var markerColorCmd = &cobra.Command{
	Use:   "color <id> <color>",
	Short: "Set a marker's icon color",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.SetMarkerIconColor(context.Background(), args[0], args[1]); err != nil {
			fatal("failed to set icon color", err)
		}
	},
}

var markerTagCmd = &cobra.Command{
	Use:   "tag <id> <tag>",
	Short: "Add a tag to a marker",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.AddTag(context.Background(), args[0], args[1]); err != nil {
			fatal("failed to add tag", err)
		}
	},
}

var markerUntagCmd = &cobra.Command{
	Use:   "untag <id> <tag>",
	Short: "Remove a tag from a marker",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.DeleteTag(context.Background(), args[0], args[1]); err != nil {
			fatal("failed to remove tag", err)
		}
	},
}

var markerIndentCmd = &cobra.Command{
	Use:   "indent <id>",
	Short: "Increase a marker's indent level",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.IndentMarker(context.Background(), args[0]); err != nil {
			fatal("failed to indent marker", err)
		}
	},
}

var markerUnindentCmd = &cobra.Command{
	Use:   "unindent <id>",
	Short: "Decrease a marker's indent level",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.UnindentMarker(context.Background(), args[0]); err != nil {
			fatal("failed to unindent marker", err)
		}
	},
}

var markerMoveCmd = &cobra.Command{
	Use:   "move <id> <target-id>",
	Short: "Move a marker after another marker, or to the front of a stack",
	Long: `Move a marker immediately after the target marker, possibly across
stacks. With --stack the target id names a stack and the marker moves to the
front of that stack.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		kind := core.TargetMarker
		if markerMoveToStack {
			kind = core.TargetStack
		}
		if err := store.MoveMarker(context.Background(), args[0], args[1], kind); err != nil {
			fatal("failed to move marker", err)
		}
	},
}

var markerPositionCmd = &cobra.Command{
	Use:   "position <id> <line> [column]",
	Short: "Update a marker's file position",
	Args:  cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		line, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("invalid line", err)
		}
		column := 0
		if len(args) == 3 {
			column, err = strconv.Atoi(args[2])
			if err != nil {
				fatal("invalid column", err)
			}
		}

		store := openStore()
		defer store.Close()

		if err := store.SetMarkerPosition(context.Background(), args[0], line, column); err != nil {
			fatal("failed to set position", err)
		}
	},
}

var markerDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a marker",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		if err := store.DeleteMarker(context.Background(), args[0]); err != nil {
			fatal("failed to delete marker", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(markerCmd)
	markerCmd.AddCommand(markerTitleCmd)
	markerCmd.AddCommand(markerIconCmd)
	markerCmd.AddCommand(markerColorCmd)
	markerCmd.AddCommand(markerTagCmd)
	markerCmd.AddCommand(markerUntagCmd)
	markerCmd.AddCommand(markerIndentCmd)
	markerCmd.AddCommand(markerUnindentCmd)
	markerCmd.AddCommand(markerMoveCmd)
	markerCmd.AddCommand(markerPositionCmd)
	markerCmd.AddCommand(markerDeleteCmd)

	markerMoveCmd.Flags().BoolVar(&markerMoveToStack, "stack", false, "Treat the target id as a stack id")
}
