package main

import "github.com/chrisdamba/foodroutesim/cmd"

func main() {
	cmd.Execute()
}
