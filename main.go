package main

import "github.com/garagekb/garagekb/cmd"

func main() {
	cmd.Execute()
}
