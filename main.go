package main

import "github.com/kamusis/askrepo/cmd"

func main() {
	cmd.Execute()
}
