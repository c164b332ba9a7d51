package main

import "go-portscout/cli"

func main() {
	cli.Execute(cli.NewRootCommand())
}
