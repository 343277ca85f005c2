package main

import "github.com/wagner-austin/tree-bot/cmd"

func main() {
	cmd.Execute()
}
