// Package cli provides the interactive deck viewer.
//
// It wires configuration, the local state database, the deck API client,
// the document sources and a viewer, then runs a REPL on top of it. The
// viewer reports changes asynchronously; they are printed as they arrive,
// so download progress, prompts and tour steps appear between commands.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// and then sends the final engagement report.
package cli
