// Package cli provides the interactive vidhub command-line client.
//
// It wires configuration, the local session database, the HTTP API client
// and a REPL. The session survives restarts: a user who logged in once is
// still logged in next time until they log out or the refresh token is
// rejected.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
