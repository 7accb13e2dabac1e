package main

import "github.com/emiliopalmerini/helix-console/internal/cli"

func main() {
	cli.Execute()
}
