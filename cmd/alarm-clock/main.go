package main

import "github.com/oshokin/window-alarm/cmd/alarm-clock/cmd"

func main() {
	cmd.Execute()
}
