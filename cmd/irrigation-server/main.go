package main

import "github.com/oshokin/irrigation/cmd/irrigation-server/cmd"

func main() {
	cmd.Execute()
}
