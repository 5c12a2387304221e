package main

import "github.com/oshokin/window-alarm/cmd/alarmctl/cmd"

func main() {
	cmd.Execute()
}
