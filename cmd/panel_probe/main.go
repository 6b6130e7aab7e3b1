package main

import "github.com/baysah/panel_agent/internal/cli"

func main() {
	cli.Execute()
}
