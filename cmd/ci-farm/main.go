package main

import "github.com/ci-farm/ci-farm/internal/command"

func main() {
	command.Execute()
}
