package main

import "github.com/mcoot/bullcow/internal/cli"

func main() {
	cli.Execute()
}
