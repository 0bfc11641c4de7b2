package main

import "github.com/beamly/fastlydash/cmd"

func main() {
	cmd.Execute()
}
