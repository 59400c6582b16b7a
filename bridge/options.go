package bridge

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"time"

	"http-bridge/server"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Defaults Defaults `yaml:"defaults"`

	// Server configures the servers bare handlers are resolved into.
	Server server.Options `yaml:"server"`
}

// Defaults fill in whatever a Descriptor leaves unset.
type Defaults struct {
	BaseURL string      `yaml:"base_url"`
	Headers http.Header `yaml:"headers"`

	MaxContentLength int64         `yaml:"max_content_length"`
	MaxBodyLength    int64         `yaml:"max_body_length"`
	Timeout          time.Duration `yaml:"timeout"`

	DisableDecompression bool `yaml:"disable_decompression"`
}

// ParseOptions reads options from YAML. Unknown keys are rejected.
func ParseOptions(data []byte) (Options, error) {
	var opts Options

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, errors.Wrap(err, "parsing options")
	}
	return opts, nil
}

func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errors.Wrap(err, "reading options file")
	}
	return ParseOptions(data)
}
