package dissect

import (
	"github.com/moffa90/go-bk7231/artifact"
	"github.com/moffa90/go-bk7231/cipher"
)

// Config holds the dissector configuration.
type Config struct {
	// EventCallback is called for every reportable step (optional)
	EventCallback EventCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Writer receives recovered payloads. Nothing is extracted when nil.
	Writer artifact.Writer

	// WithContainerHeader writes container artifacts including their RBL
	// header instead of the payload only
	WithContainerHeader bool

	// Cipher decrypts code partitions
	Cipher *cipher.Cipher
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Cipher: cipher.CodePartition,
	}
}

// Option is a functional option for configuring the Dissector.
type Option func(*Config)

// WithEventCallback sets a callback receiving dissection events.
//
// Example:
//
//	d := dissect.New(l, dissect.WithEventCallback(dissect.NewReporter(os.Stdout)))
func WithEventCallback(callback EventCallback) Option {
	return func(c *Config) {
		c.EventCallback = callback
	}
}

// WithLogger sets a logger for the dissector operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithWriter enables extraction of recovered payloads into w.
//
// Example:
//
//	d := dissect.New(l, dissect.WithWriter(artifact.NewDirWriter("out")))
func WithWriter(w artifact.Writer) Option {
	return func(c *Config) {
		c.Writer = w
	}
}

// WithContainerHeader makes raw container artifacts include the RBL header.
func WithContainerHeader(include bool) Option {
	return func(c *Config) {
		c.WithContainerHeader = include
	}
}

// WithCipher replaces the code partition cipher.
func WithCipher(ci *cipher.Cipher) Option {
	return func(c *Config) {
		if ci != nil {
			c.Cipher = ci
		}
	}
}
