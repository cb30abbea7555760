package main

import "github.com/carl-sl-li/lambda-no-secret/internal/cli"

func main() {
	cli.Execute()
}
