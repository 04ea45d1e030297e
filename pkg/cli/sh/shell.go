package sh

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/telelink/pkg/env"
	"github.com/robotalks/telelink/pkg/talk"
	"github.com/robotalks/telelink/pkg/uavobj"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell    *ishell.Shell
	Config   *env.Config
	Registry *uavobj.Registry
	Link     *Link
}

// Link is a running connection.
type Link struct {
	URL    string
	Conn   *talk.Conn
	Cancel func()

	closer io.Closer
}

// Close stops the connection.
func (l *Link) Close() error {
	l.Cancel()
	return l.closer.Close()
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&ObjectsCmd,
		&ShowCmd,
		&RequestCmd,
		&SendCmd,
		&StatsCmd,
		&StatsResetCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *env.Config, reg *uavobj.Registry) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:    ishell.New(),
		Config:   conf,
		Registry: reg,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Link == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the link at url and starts receiving.
func (s *Shell) Connect(url string) error {
	conf := *s.Config
	conf.LinkURL = url
	conn, rw, err := conf.Connect(s.Registry)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.Disconnect()
	s.Link = &Link{URL: url, Conn: conn, Cancel: cancel, closer: rw}
	go func() {
		if err := conn.Run(ctx, rw); err != nil && err != context.Canceled {
			s.Shell.Printf("link %s: %v\n", url, err)
		}
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", url))
	return nil
}

// Disconnect closes the current link.
func (s *Shell) Disconnect() {
	if s.Link != nil {
		s.Link.Close()
		s.Link = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.LinkURL != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.LinkURL)
		}
		if err := s.Connect(s.Config.LinkURL); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.LinkURL, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := env.NewConfig()
	New(conf, conf.MustLoadRegistry()).WithAutoConnect(true).Run(flag.Args()...)
}
