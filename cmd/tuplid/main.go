package main

import "github.com/tumcps/tupli/cmd/tuplid/cmd"

func main() {
	cmd.Execute()
}
