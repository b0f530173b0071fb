package main

import "time"

// Flag structs decouple cobra from the handlers for testing.

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

type StartFlags struct {
	Packages []string
}

type StopFlags struct{}

type StatusFlags struct {
	URL     string
	Timeout time.Duration
	JSON    bool
}

type ListFlags struct {
	Templates bool
}
