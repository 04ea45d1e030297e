// Package link opens the byte stream a telemetry connection runs over.
package link

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/tarm/serial"
	"golang.org/x/net/websocket"

	"github.com/robotalks/telelink/pkg/bridge/mqtt"
)

// DefaultBaud is the serial speed when the URL doesn't specify one.
const DefaultBaud = 57600

// Kind is the type of the link.
type Kind int

// Link types.
const (
	Serial Kind = iota
	TCP
	WebSocket
	MQTT
)

// Config is parsed from a link URL:
//
//	/dev/ttyUSB0
//	serial:///dev/ttyUSB0?baud=115200
//	tcp://192.168.4.1:2000
//	ws://host:port/link
//	mqtt://broker:1883/prefix/?side=vehicle
type Config struct {
	Kind    Kind
	Address string
	Baud    int
	Origin  string
	// Vehicle selects the vehicle side topics of an MQTT tunnel.
	Vehicle bool
}

// Parse parses a link URL.
func Parse(link string) (*Config, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "", "file", "serial":
		if u.Path == "" {
			return nil, fmt.Errorf("missing serial device in %q", link)
		}
		conf := &Config{Kind: Serial, Address: u.Path, Baud: DefaultBaud}
		if val := u.Query().Get("baud"); val != "" {
			if conf.Baud, err = strconv.Atoi(val); err != nil || conf.Baud <= 0 {
				return nil, fmt.Errorf("invalid baud %q", val)
			}
		}
		return conf, nil
	case "tcp", "socket":
		if u.Host == "" {
			return nil, fmt.Errorf("missing host in %q", link)
		}
		return &Config{Kind: TCP, Address: u.Host}, nil
	case "ws", "wss":
		origin := "http://localhost/"
		if u.Scheme == "wss" {
			origin = "https://localhost/"
		}
		return &Config{Kind: WebSocket, Address: u.String(), Origin: origin}, nil
	case "mqtt", "mqtts":
		if u.Host == "" {
			return nil, fmt.Errorf("missing broker in %q", link)
		}
		q := u.Query()
		conf := &Config{Kind: MQTT}
		switch side := q.Get("side"); side {
		case "", "ground":
		case "vehicle":
			conf.Vehicle = true
		default:
			return nil, fmt.Errorf("invalid side %q", side)
		}
		q.Del("side")
		u.RawQuery = q.Encode()
		if u.Scheme == "mqtts" {
			u.Scheme = "ssl"
		}
		conf.Address = u.String()
		return conf, nil
	}
	return nil, fmt.Errorf("unsupported link %q", link)
}

// Open opens the link.
func (c *Config) Open() (io.ReadWriteCloser, error) {
	switch c.Kind {
	case Serial:
		glog.Infof("open serial %s at %d", c.Address, c.Baud)
		return serial.OpenPort(&serial.Config{
			Name:     c.Address,
			Baud:     c.Baud,
			Size:     8,
			Parity:   serial.ParityNone,
			StopBits: serial.Stop1,
		})
	case TCP:
		glog.Infof("dial %s", c.Address)
		conn, err := net.Dial("tcp", c.Address)
		if err != nil {
			return nil, err
		}
		if tcp, ok := conn.(*net.TCPConn); ok {
			tcp.SetKeepAlive(true)
			tcp.SetKeepAlivePeriod(30 * time.Second)
		}
		return conn, nil
	case WebSocket:
		glog.Infof("dial %s", c.Address)
		conn, err := websocket.Dial(c.Address, "", c.Origin)
		if err != nil {
			return nil, err
		}
		conn.PayloadType = websocket.BinaryFrame
		return conn, nil
	case MQTT:
		return openTunnel(c)
	}
	return nil, fmt.Errorf("unknown link kind %d", c.Kind)
}

// Open parses the URL and opens the link.
func Open(link string) (io.ReadWriteCloser, error) {
	conf, err := Parse(link)
	if err != nil {
		return nil, err
	}
	return conf.Open()
}

type tunnelLink struct {
	*mqtt.Tunnel
	queue *mqtt.Queue
}

func (l *tunnelLink) Close() error {
	l.Tunnel.Close()
	return l.queue.Close()
}

func openTunnel(c *Config) (io.ReadWriteCloser, error) {
	glog.Infof("connect %s", c.Address)
	q, err := mqtt.NewQueueFromURL(c.Address, fmt.Sprintf("telelink-link-%d", os.Getpid()))
	if err != nil {
		return nil, err
	}
	if err = q.Connect(); err != nil {
		return nil, err
	}
	t := mqtt.NewTunnel(q)
	if c.Vehicle {
		t.ForVehicle()
	} else {
		t.ForGround()
	}
	if _, err = t.Open(); err != nil {
		q.Close()
		return nil, err
	}
	return &tunnelLink{Tunnel: t, queue: q}, nil
}
