// Package config reads runtime settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"iracing-broadcast/middleware"
	"iracing-broadcast/protocol"
	"iracing-broadcast/queue"
)

type Config struct {
	WindowClass string
	WindowTitle string
	Broadcast   bool

	RateLimit   float64 // Messages per second, 0 disables
	Burst       int
	MaxRetries  int
	RetryDelay  time.Duration
	SendTimeout time.Duration // 0 disables

	EtcdEndpoints []string
	QueuePrefix   string
	ListenAddr    string

	LogLevel       string
	LogDevelopment bool
}

func Default() Config {
	return Config{
		WindowClass: protocol.DefaultWindowClass,
		WindowTitle: protocol.DefaultWindowTitle,
		Burst:       1,
		RetryDelay:  100 * time.Millisecond,
		QueuePrefix: queue.DefaultPrefix,
		LogLevel:    "info",
	}
}

// Load reads the given .env files (".env" when none are named) into the
// process environment without overriding variables already set, then
// parses the environment. A missing default .env is not an error.
func Load(files ...string) (Config, error) {
	explicit := len(files) > 0
	if !explicit {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv parses IRBROADCAST_* variables over Default.
func FromEnv() (Config, error) {
	c := Default()
	p := envParser{}

	p.str("IRBROADCAST_WINDOW_CLASS", &c.WindowClass)
	p.str("IRBROADCAST_WINDOW_TITLE", &c.WindowTitle)
	p.boolean("IRBROADCAST_BROADCAST", &c.Broadcast)
	p.float("IRBROADCAST_RATE", &c.RateLimit)
	p.integer("IRBROADCAST_BURST", &c.Burst)
	p.integer("IRBROADCAST_RETRIES", &c.MaxRetries)
	p.duration("IRBROADCAST_RETRY_DELAY", &c.RetryDelay)
	p.duration("IRBROADCAST_SEND_TIMEOUT", &c.SendTimeout)
	p.list("IRBROADCAST_ETCD_ENDPOINTS", &c.EtcdEndpoints)
	p.str("IRBROADCAST_QUEUE_PREFIX", &c.QueuePrefix)
	p.str("IRBROADCAST_LISTEN", &c.ListenAddr)
	p.str("IRBROADCAST_LOG_LEVEL", &c.LogLevel)
	p.boolean("IRBROADCAST_LOG_DEV", &c.LogDevelopment)

	if p.err != nil {
		return Config{}, p.err
	}
	return c, c.Validate()
}

// MaxRetries bounds IRBROADCAST_RETRIES.
const MaxRetries = 10

func (c Config) Validate() error {
	switch {
	case c.WindowClass == "":
		return errors.New("config: IRBROADCAST_WINDOW_CLASS must not be empty")
	case strings.ContainsRune(c.WindowClass, 0):
		return errors.New("config: IRBROADCAST_WINDOW_CLASS must not contain NUL")
	case strings.ContainsRune(c.WindowTitle, 0):
		return errors.New("config: IRBROADCAST_WINDOW_TITLE must not contain NUL")
	case c.RateLimit < 0:
		return fmt.Errorf("config: IRBROADCAST_RATE must be >= 0, got %v", c.RateLimit)
	case c.RateLimit > 0 && c.Burst < 1:
		return fmt.Errorf("config: IRBROADCAST_BURST must be >= 1, got %d", c.Burst)
	case c.MaxRetries < 0 || c.MaxRetries > MaxRetries:
		return fmt.Errorf("config: IRBROADCAST_RETRIES must be in [0, %d], got %d", MaxRetries, c.MaxRetries)
	case c.RetryDelay < 0:
		return fmt.Errorf("config: IRBROADCAST_RETRY_DELAY must be >= 0, got %v", c.RetryDelay)
	case c.SendTimeout < 0:
		return fmt.Errorf("config: IRBROADCAST_SEND_TIMEOUT must be >= 0, got %v", c.SendTimeout)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: IRBROADCAST_LOG_LEVEL: %w", err)
	}
	return nil
}

// SendBudget is the longest one send through the configured middleware can
// take: SendTimeout when set, otherwise every retry backoff plus a margin
// for the attempts themselves.
func (c Config) SendBudget() time.Duration {
	if c.SendTimeout > 0 {
		return c.SendTimeout
	}
	return middleware.RetryBudget(c.MaxRetries, c.RetryDelay) + time.Duration(c.MaxRetries+1)*time.Second
}

// NewLogger builds a production (JSON) or development (console) logger at
// the configured level.
func NewLogger(c Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: IRBROADCAST_LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.LogDevelopment {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// envParser keeps the first error, naming the variable.
type envParser struct {
	err error
}

func (p *envParser) lookup(name string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := os.LookupEnv(name)
	return strings.TrimSpace(v), ok
}

func (p *envParser) fail(name, v string, err error) {
	p.err = fmt.Errorf("config: %s=%q: %w", name, v, err)
}

func (p *envParser) str(name string, dst *string) {
	if v, ok := p.lookup(name); ok {
		*dst = v
	}
}

func (p *envParser) boolean(name string, dst *bool) {
	v, ok := p.lookup(name)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(name, v, err)
		return
	}
	*dst = b
}

func (p *envParser) integer(name string, dst *int) {
	v, ok := p.lookup(name)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(name, v, err)
		return
	}
	*dst = n
}

func (p *envParser) float(name string, dst *float64) {
	v, ok := p.lookup(name)
	if !ok || v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(name, v, err)
		return
	}
	*dst = f
}

func (p *envParser) duration(name string, dst *time.Duration) {
	v, ok := p.lookup(name)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(name, v, err)
		return
	}
	*dst = d
}

func (p *envParser) list(name string, dst *[]string) {
	v, ok := p.lookup(name)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}
