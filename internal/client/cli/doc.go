// Package cli is the terminal frontend of the boardsync client.
//
// App wires the consistency engine (autosave, board mutations, comment sync,
// document bootstrap, online watcher) to a line-oriented REPL. The editor
// surface is a plain in-memory byte buffer; board content flows through it
// exactly as a drawing surface would feed serialized state to the engine.
//
// See App, Root, and the input helpers for details.
package cli
