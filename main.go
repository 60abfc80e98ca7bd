package main

import "github.com/chrisdamba/brewpos/cmd"

func main() {
	cmd.Execute()
}
