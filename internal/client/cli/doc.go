// Package cli provides the interactive GophDrive command-line client.
//
// It dials the server, attaches the configured access token to every call
// and runs a REPL that browses and edits the caller's drive:
//
//   - ls / cd / path      navigate folders
//   - mkdir / upload      create folders and upload local files
//   - mv / rename         reorganize entries
//   - star / trash        toggle flags (and unstar / untrash)
//   - rm [-r]             delete entries, optionally with everything inside
//
// A background watcher pings the server and reports online/offline changes.
package cli
