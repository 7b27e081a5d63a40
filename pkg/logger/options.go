package logger

import (
	"io"
	"os"
)

type settings struct {
	maxSize    int
	maxBackups int
	maxAge     int
	file       bool
	console    io.Writer
}

type Option func(*settings)

// WithoutFile disables the rotating file sink.
func WithoutFile() Option {
	return func(s *settings) { s.file = false }
}

// Console redirects the console sink, e.g. to stderr so command output stays clean.
func Console(w io.Writer) Option {
	return func(s *settings) { s.console = w }
}

func MaxSize(megabytes int) Option {
	return func(s *settings) { s.maxSize = megabytes }
}

func MaxBackups(count int) Option {
	return func(s *settings) { s.maxBackups = count }
}

func MaxAge(days int) Option {
	return func(s *settings) { s.maxAge = days }
}

func defaultSettings() settings {
	return settings{
		maxSize:    100,
		maxBackups: 7,
		maxAge:     30,
		file:       true,
		console:    os.Stdout,
	}
}
