package main

import "mcserver/internal/cli"

func main() {
	cli.Execute()
}
