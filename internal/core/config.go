package core

import "time"

// Config is runtime configuration for the console.
type Config struct {
	Broker    string
	Identity  string
	TopicBase string
	Timeout   time.Duration
	IndexPath string
	Color     bool
	LogLevel  string
	LogFormat string
	// Aliases maps names to device addresses.
	Aliases map[string]string
}
