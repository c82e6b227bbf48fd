// Command pedidobot runs the content-request bot and its operator tooling.
//
// "pedidobot serve" starts the webhook gateway in the foreground. The other
// subcommands open the same SQLite database directly, so they work whether or
// not the server is running: list and inspect pedidos, run the matcher by
// hand, manage the provider library, and check configuration.
package main
