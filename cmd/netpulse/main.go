package main

import "netpulse/internal/cli"

func main() {
	cli.Execute()
}
