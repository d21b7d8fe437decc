// Package cli provides the interactive Inkpad command-line client.
//
// It wires configuration, the local cache, the HTTP store client, and an
// interactive REPL around the document list and one editing session at a
// time. Typical flow: prompt for credentials, start a background
// connectivity watcher and the change subscription, and execute user
// commands.
//
// Key features:
//   - Register / Login / Logout
//   - List, search, recent and starred views of the collection
//   - Open one document for editing with debounced automatic saves
//   - Star toggling, creation, deletion
//   - Live refresh when another session changes the collection
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
