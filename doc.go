// Package codeexplorer is the composition root for the code-explorer marker
// store.
//
// It connects the core marker model (stacks of code bookmarks) with the
// filesystem persistence adapter: a JSON sidecar document per workspace
// folder, kept in sync through atomic writes and a debounced file watch.
//
// Features:
//
//   - **Marker stacks**: ordered code bookmarks grouped into stacks, with at
//     most one active stack per folder.
//   - **Sidecar persistence**: one pretty-printed JSON document per
//     workspace folder, written atomically on every change.
//   - **External edit reconciliation**: a debounced watch reloads the model
//     when the document changes on disk, while the store's own saves are
//     suppressed.
//   - **Legacy migration**: older document shapes and file locations are
//     upgraded transparently on first load.
//
// Usage:
//
//	store, err := codeexplorer.Open("/path/to/workspace",
//		codeexplorer.WithLogger(logger),
//	)
//
//	_, err = store.AddMarker(ctx, core.MarkerInput{
//		File: "src/main.go",
//		Line: 42,
//		Code: "func main() {",
//	})
package codeexplorer
