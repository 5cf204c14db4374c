// Package main provides the entry point for the ReadUp server.
package main

import "github.com/listenupapp/readup-server/internal/cli"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.Execute(version)
}
