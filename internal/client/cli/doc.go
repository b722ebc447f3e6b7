// Package cli provides the interactive contactbook command-line client.
//
// It wires configuration, the REST API client and a read-eval-print loop.
// Passwords are read from the terminal without echo. The session token lives
// in memory only, so every run starts logged out.
//
// Commands:
//   - register, verify, resend, login, logout, me, subscription, avatar
//   - list, add, show, edit, fav, delete
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
