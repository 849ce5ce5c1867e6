// Package server holds the HTTP server configuration.
//
// The main application entry point handles the server startup; this package
// only defines the configuration structure (listen port and API key) that
// core/config embeds.
package server
