package main

import "github.com/forPelevin/clipline/internal/cli"

func main() {
	cli.Main()
}
