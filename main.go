package main

import (
	"os"

	"leadprep/commands"
)

func main() {
	os.Exit(commands.Execute())
}
