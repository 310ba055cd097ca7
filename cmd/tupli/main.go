package main

import "github.com/tumcps/tupli/cmd/tupli/cmd"

func main() {
	cmd.Execute()
}
