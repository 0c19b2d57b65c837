package main

import "github.com/oshokin/irrigation/cmd/irrigation-ctl/cmd"

func main() {
	cmd.Execute()
}
