package main

import "github.com/strrl/chatdash/cmd/chatdash/commands"

func main() {
	commands.Execute()
}
