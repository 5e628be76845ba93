package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tianjianchn/code-explorer/pkg/core"
)

var (
	markersAll  bool
	markersJSON bool
	markersGlob string
	markersTag  string
)

var markersCmd = &cobra.Command{
	Use:   "markers",
	Short: "List markers",
	Long: `List the active stack's markers, or all markers with --all. Each line
follows the shareable text format:

  - [tags]file:line:column code # title`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		ctx := context.Background()
		var markers []*core.Marker
		var err error
		switch {
		case markersGlob != "":
			markers, err = store.MarkersMatching(ctx, markersGlob)
		case markersAll:
			markers, err = store.AllMarkers(ctx)
		default:
			var st *core.Stack
			st, err = store.ActiveStack(ctx)
			if st != nil {
				markers = st.Markers
			}
		}
		if err != nil {
			fatal("failed to list markers", err)
		}

		if markersTag != "" {
			// Filter into a fresh slice: markers may alias the live model.
			filtered := make([]*core.Marker, 0, len(markers))
			for _, m := range markers {
				if m.HasTag(markersTag) {
					filtered = append(filtered, m)
				}
			}
			markers = filtered
		}

		if markersJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(markers); err != nil {
				fatal("failed to encode JSON", err)
			}
			return
		}

		folder := store.Folder()
		for _, m := range markers {
			fmt.Println(formatMarker(m, folder))
		}
	},
}

// formatMarker renders one marker as a shareable text line.
func formatMarker(m *core.Marker, folder string) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", m.Indent))
	b.WriteString("- ")
	if len(m.Tags) > 0 {
		fmt.Fprintf(&b, "[%s]", strings.Join(m.Tags, ","))
	}
	fmt.Fprintf(&b, "%s:%d:%d", core.StoragePath(m.File, folder), m.Line, m.Column)
	if m.Code != "" {
		b.WriteString(" ")
		b.WriteString(m.Code)
	}
	if m.Title != "" {
		b.WriteString(" # ")
		b.WriteString(m.Title)
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(markersCmd)
	markersCmd.Flags().BoolVar(&markersAll, "all", false, "List markers from every stack")
	markersCmd.Flags().BoolVar(&markersJSON, "json", false, "Output in JSON format")
	markersCmd.Flags().StringVar(&markersGlob, "glob", "", "Filter markers by file glob (doublestar syntax)")
	markersCmd.Flags().StringVar(&markersTag, "tag", "", "Filter markers by tag")
}
