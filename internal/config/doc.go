// Package config loads the identity service configuration.
//
// Values come from environment variables, optionally seeded from a .env
// file, with defaults taken from the `default` struct tags of each section.
// Nested keys map to upper-case underscore names, so database.url is read
// from DATABASE_URL and server.port from SERVER_PORT.
//
// The plain PORT variable is honoured as an alias for SERVER_PORT. A
// DATABASE_URL with a postgres scheme selects the postgres driver unless
// DATABASE_DRIVER says otherwise.
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
