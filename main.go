package main

import "github.com/Tiliavir/timebook/cmd"

func main() {
	cmd.Execute()
}
