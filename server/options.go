package server

import "time"

type Options struct {
	Timeout TimeoutOptions `yaml:"timeout"`

	// MaxHeaderBytes caps request headers. Zero means net/http's default.
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

type TimeoutOptions struct {
	IdleTimeout       time.Duration `yaml:"idle"`
	ReadTimeout       time.Duration `yaml:"read"`
	ReadHeaderTimeout time.Duration `yaml:"read_header"`
	WriteTimeout      time.Duration `yaml:"write"`
}
