// Package client contains the transport side of the vidhub CLI.
//
// # Overview
//
// The package provides:
//  1. The Client interface: the account API as the CLI sees it.
//  2. HTTPClient, its implementation over the server's JSON/multipart API.
//     Responses are unwrapped from the server envelope and failures mapped
//     to sentinel errors.
//  3. InitDatabase, which opens the local SQLite session database and
//     applies its embedded goose migrations.
//
// # Error Handling
//
// Callers match failures with errors.Is: ErrUnavailable when the server
// cannot be reached, ErrUnauthorized on 401 responses. Other non-2xx
// responses are returned as *APIError.
package client
