package main

import "cargoupstall/internal/cli"

func main() {
	cli.Execute()
}
