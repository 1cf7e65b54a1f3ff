package main

import "games-dashboard/cmd"

func main() {
	cmd.Execute()
}
