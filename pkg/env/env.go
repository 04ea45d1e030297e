// Package env provides the common configuration of telelink commands.
package env

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/telelink/pkg/link"
	"github.com/robotalks/telelink/pkg/talk"
	"github.com/robotalks/telelink/pkg/uavobj"
)

// Config provides common options for telelink commands.
type Config struct {
	// LinkURL specifies the telemetry link, see link.Parse.
	LinkURL string
	// ObjectsFile is the TOML file of object definitions.
	ObjectsFile string
	// MQTTURL specifies the broker, e.g. mqtt://host:port/topic-prefix.
	// Empty disables the bridge.
	MQTTURL string
	// HTTPAddr is the listen address of the API. Empty disables it.
	HTTPAddr string
	// MaxChunk limits the bytes of each write to the link.
	MaxChunk int
	// Timeout of a request or acked send.
	Timeout time.Duration
	// StatsInterval is the period of link statistics publishing.
	StatsInterval time.Duration
}

var defaultConfig = Config{
	LinkURL:       "/dev/ttyUSB0",
	ObjectsFile:   "objects.toml",
	MaxChunk:      talk.MaxPacketLength,
	Timeout:       250 * time.Millisecond,
	StatsInterval: 5 * time.Second,
}

func init() {
	if val := os.Getenv("TELELINK_URL"); val != "" {
		defaultConfig.LinkURL = val
	}
	if val := os.Getenv("TELELINK_OBJECTS"); val != "" {
		defaultConfig.ObjectsFile = val
	}
	if val := os.Getenv("TELELINK_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("TELELINK_HTTP"); val != "" {
		defaultConfig.HTTPAddr = val
	}
	if val := os.Getenv("TELELINK_MAX_CHUNK"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			defaultConfig.MaxChunk = n
		}
	}
	if val := os.Getenv("TELELINK_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			defaultConfig.Timeout = d
		}
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.LinkURL, "link", defaultConfig.LinkURL, "Telemetry link URL.")
	flag.StringVar(&defaultConfig.ObjectsFile, "objects", defaultConfig.ObjectsFile, "Object definitions file.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.HTTPAddr, "http", defaultConfig.HTTPAddr, "HTTP API listen address.")
	flag.IntVar(&defaultConfig.MaxChunk, "max-chunk", defaultConfig.MaxChunk, "Max bytes per link write.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Transaction timeout.")
	flag.DurationVar(&defaultConfig.StatsInterval, "stats-interval", defaultConfig.StatsInterval, "Link stats publishing interval.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadRegistry creates the registry from ObjectsFile.
func (c *Config) LoadRegistry() (*uavobj.Registry, error) {
	defs, err := uavobj.LoadFile(c.ObjectsFile)
	if err != nil {
		return nil, err
	}
	reg := uavobj.NewRegistry()
	if err = reg.RegisterAll(defs); err != nil {
		return nil, fmt.Errorf("register objects: %v", err)
	}
	return reg, nil
}

// MustLoadRegistry loads the registry and fails on error.
func (c *Config) MustLoadRegistry() *uavobj.Registry {
	reg, err := c.LoadRegistry()
	if err != nil {
		log.Fatalln(err)
	}
	return reg
}

// Connect opens the link and creates a Conn writing to it.
func (c *Config) Connect(reg talk.Registry) (*talk.Conn, io.ReadWriteCloser, error) {
	rw, err := link.Open(c.LinkURL)
	if err != nil {
		return nil, nil, err
	}
	conn, err := talk.NewConn(reg, rw, c.MaxChunk)
	if err != nil {
		rw.Close()
		return nil, nil, err
	}
	return conn, rw, nil
}

// MustConnect connects and fails on error.
func (c *Config) MustConnect(reg talk.Registry) (*talk.Conn, io.ReadWriteCloser) {
	conn, rw, err := c.Connect(reg)
	if err != nil {
		log.Fatalln(err)
	}
	return conn, rw
}
