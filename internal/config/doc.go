// Package config defines the settings shared by the alarm binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the control and metrics listen addresses, the
// location of the storage image, the timezone, the refresh period of the
// clock loop and the GPIO pin names.
package config
