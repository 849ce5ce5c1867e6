package main

import "deck-mirror/cmd"

func main() {
	cmd.Execute()
}
