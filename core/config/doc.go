// Package config provides configuration management for deck-mirror.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Deck: Nextcloud Deck API connection (host, credentials, timeout)
//   - Mirror: poll loop settings (cooldown)
//   - Notify: Redis due-event publisher (address, channel)
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Deck.Host)
package config
