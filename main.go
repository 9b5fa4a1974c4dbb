package main

import "github.com/sadopc/billr/internal/cli"

func main() {
	cli.Execute()
}
