package main

import "databinding-compat/internal/cli"

func main() {
	cli.Execute()
}
