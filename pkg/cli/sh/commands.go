package sh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/telelink/pkg/talk"
	"github.com/robotalks/telelink/pkg/uavobj"
)

func (s *Shell) print(w io.Writer, v interface{}, text func(io.Writer)) error {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(out))
		return nil
	}
	text(w)
	return nil
}

func (s *Shell) object(name string) (*uavobj.Object, error) {
	obj := s.Registry.GetByName(name)
	if obj == nil {
		return nil, fmt.Errorf("%s: %v", name, talk.ErrUnknownObject)
	}
	return obj, nil
}

func parseInstance(arg string, allowAll bool) (uint16, error) {
	if arg == "all" && allowAll {
		return talk.AllInstances, nil
	}
	n, err := strconv.ParseUint(arg, 10, 16)
	if err != nil || n == uint64(talk.AllInstances) {
		return 0, fmt.Errorf("invalid instance %q", arg)
	}
	return uint16(n), nil
}

// parseValues parses FIELD=VALUE arguments, VALUE may be a comma
// separated list for fields with multiple elements.
func parseValues(args []string) (uavobj.Values, error) {
	values := make(uavobj.Values)
	for _, arg := range args {
		pos := strings.Index(arg, "=")
		if pos <= 0 {
			return nil, fmt.Errorf("invalid value %q, expect FIELD=VALUE", arg)
		}
		name, val := arg[:pos], arg[pos+1:]
		if strings.Contains(val, ",") {
			var elems []interface{}
			for _, e := range strings.Split(val, ",") {
				elems = append(elems, strings.TrimSpace(e))
			}
			values[name] = elems
		} else {
			values[name] = val
		}
	}
	return values, nil
}

// ListObjects prints registered objects.
func (s *Shell) ListObjects(w io.Writer) error {
	objs := s.Registry.Objects()
	defs := make([]uavobj.Definition, len(objs))
	for n, obj := range objs {
		defs[n] = obj.Definition()
	}
	return s.print(w, defs, func(w io.Writer) {
		for _, obj := range objs {
			kind := "multi"
			if obj.IsSingleInstance() {
				kind = "single"
			}
			fmt.Fprintf(w, "%08x %-24s %6s %3d bytes %d instance(s)\n",
				obj.ID(), obj.Name(), kind, obj.NumBytes(), obj.NumInstances())
		}
	})
}

// ShowObject prints the field values of an instance.
func (s *Shell) ShowObject(w io.Writer, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("NAME expected")
	}
	obj, err := s.object(args[0])
	if err != nil {
		return err
	}
	var inst uint16
	if len(args) > 1 {
		if inst, err = parseInstance(args[1], false); err != nil {
			return err
		}
	}
	values, err := obj.Decode(inst)
	if err != nil {
		return err
	}
	return s.print(w, values, func(w io.Writer) {
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(w, "%s[%d]\n", obj.Name(), inst)
		for _, name := range names {
			fmt.Fprintf(w, "  %s = %v\n", name, values[name])
		}
	})
}

// RequestObject requests an object from the peer.
func (s *Shell) RequestObject(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("NAME expected")
	}
	obj, err := s.object(args[0])
	if err != nil {
		return err
	}
	var inst uint16
	if len(args) > 1 {
		if inst, err = parseInstance(args[1], true); err != nil {
			return err
		}
	}
	return s.Link.Conn.Request(ctx, obj.ID(), inst, s.Config.Timeout)
}

// SendObject updates fields of an instance and sends it.
func (s *Shell) SendObject(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("NAME INST|all expected")
	}
	obj, err := s.object(args[0])
	if err != nil {
		return err
	}
	inst, err := parseInstance(args[1], true)
	if err != nil {
		return err
	}
	args = args[2:]
	var acked bool
	if len(args) > 0 && args[0] == "ack" {
		acked, args = true, args[1:]
	}
	if len(args) > 0 {
		if inst == talk.AllInstances {
			return fmt.Errorf("field values require a single instance")
		}
		values, err := parseValues(args)
		if err != nil {
			return err
		}
		data, err := obj.Encode(inst, values)
		if err != nil {
			return err
		}
		if err = obj.SetData(inst, data); err != nil {
			return err
		}
	}
	return s.Link.Conn.Send(ctx, obj.ID(), inst, acked, s.Config.Timeout)
}

// PrintStats prints the link counters.
func (s *Shell) PrintStats(w io.Writer) error {
	stats := s.Link.Conn.Stats()
	return s.print(w, stats, func(w io.Writer) {
		fmt.Fprintf(w, "TX %d bytes, %d objects (%d bytes), %d errors\n",
			stats.TxBytes, stats.TxObjects, stats.TxObjectBytes, stats.TxErrors)
		fmt.Fprintf(w, "RX %d bytes, %d objects (%d bytes), %d errors\n",
			stats.RxBytes, stats.RxObjects, stats.RxObjectBytes, stats.RxErrors)
	})
}

type contextWriter struct {
	c *ishell.Context
}

func (w contextWriter) Write(p []byte) (int, error) {
	w.c.Print(string(p))
	return len(p), nil
}

func run(fn func(c *ishell.Context) error) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if err := fn(c); err != nil {
			c.Err(err)
		}
	}
}

func ok(c *ishell.Context, err error) error {
	if err == nil && !ShellFrom(c).OutputJSON {
		c.Println("OK")
	}
	return err
}

var (
	// ConnectCmd connects a link.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[URL]",
		Func: run(func(c *ishell.Context) error {
			s := ShellFrom(c)
			url := s.Config.LinkURL
			if len(c.Args) > 0 {
				url = c.Args[0]
			}
			return s.Connect(url)
		}),
	}

	// DisconnectCmd disconnects current link.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// ObjectsCmd lists objects.
	ObjectsCmd = ishell.Cmd{
		Name:    "objects",
		Aliases: []string{"list", "l"},
		Func: run(func(c *ishell.Context) error {
			return ShellFrom(c).ListObjects(contextWriter{c})
		}),
	}

	// ShowCmd shows an object instance.
	ShowCmd = ishell.Cmd{
		Name: "show",
		Help: "NAME [INST]",
		Func: run(func(c *ishell.Context) error {
			return ShellFrom(c).ShowObject(contextWriter{c}, c.Args)
		}),
	}

	// RequestCmd requests an object from the peer.
	RequestCmd = ishell.Cmd{
		Name:    "request",
		Aliases: []string{"req"},
		Help:    "NAME [INST|all]",
		Func: MustBeConnected(run(func(c *ishell.Context) error {
			return ok(c, ShellFrom(c).RequestObject(context.Background(), c.Args))
		})),
	}

	// SendCmd sends an object to the peer.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "NAME INST|all [ack] FIELD=VALUE...",
		Func: MustBeConnected(run(func(c *ishell.Context) error {
			return ok(c, ShellFrom(c).SendObject(context.Background(), c.Args))
		})),
	}

	// StatsCmd prints link counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Func: MustBeConnected(run(func(c *ishell.Context) error {
			return ShellFrom(c).PrintStats(contextWriter{c})
		})),
	}

	// StatsResetCmd clears link counters.
	StatsResetCmd = ishell.Cmd{
		Name: "stats.reset",
		Func: MustBeConnected(func(c *ishell.Context) {
			ShellFrom(c).Link.Conn.ResetStats()
		}),
	}
)
