package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tianjianchn/code-explorer/pkg/core"
)

var (
	addCode   string
	addTitle  string
	addTags   []string
	addIcon   string
	addColor  string
	addIndent int
)

var addCmd = &cobra.Command{
	Use:   "add <file> <line> [column]",
	Short: "Add a marker to the active stack",
	Long: `Add a marker at a file position. The marker goes to the end of the
active stack; a new stack is created if none is active. Relative file paths
are resolved against the workspace folder.`,
	Args: cobra.RangeArgs(2, 3),
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

		marker, err := store.AddMarker(context.Background(), core.MarkerInput{
			File:      args[0],
			Line:      line,
			Column:    column,
			Code:      addCode,
			Title:     addTitle,
			Tags:      addTags,
			Icon:      addIcon,
			IconColor: addColor,
			Indent:    addIndent,
		})
		if err != nil {
			fatal("failed to add marker", err)
		}
		if marker == nil {
			fatal("failed to add marker", fmt.Errorf("no folder bound"))
		}

		fmt.Printf("added marker %s\n", marker.ID)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addCode, "code", "", "Code snippet captured at the position")
	addCmd.Flags().StringVar(&addTitle, "title", "", "Marker title")
	addCmd.Flags().StringSliceVar(&addTags, "tag", nil, "Tag (repeatable)")
	addCmd.Flags().StringVar(&addIcon, "icon", "", "Marker icon")
	addCmd.Flags().StringVar(&addColor, "color", "", "Marker icon color")
	addCmd.Flags().IntVar(&addIndent, "indent", 0, "Indent level")
}
