// Package version holds the build metadata injected through ldflags and
// the `version` subcommand shared by alarm-clock and alarmctl.
package version
