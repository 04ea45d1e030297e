// Package mqtt bridges a telemetry link to an MQTT broker.
//
// Topics, relative to the queue prefix:
//
//	objects/<name>/<inst>             ObjectUpdate, on every update
//	objects/<name>/<inst|all>/set     ObjectSet command
//	objects/<name>/<inst|all>/req     ObjectRequest command
//	objects/<name>/<inst|all>/<cmd>/result  CommandResult
//	stats                             LinkStats, periodically
package mqtt

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/telelink/pkg/bridge/msgs"
	"github.com/robotalks/telelink/pkg/talk"
	"github.com/robotalks/telelink/pkg/uavobj"
)

// Link is the telemetry connection, implemented by talk.Conn.
type Link interface {
	Request(ctx context.Context, objID uint32, instID uint16, timeout time.Duration) error
	Send(ctx context.Context, objID uint32, instID uint16, acked bool, timeout time.Duration) error
	Stats() talk.Stats
}

var _ Link = (*talk.Conn)(nil)

// Topic names.
const (
	ObjectsTopic = "objects"
	StatsTopic   = "stats"
	SetCommand   = "set"
	ReqCommand   = "req"
	ResultSuffix = "result"
)

const updateQueueSize = 256

type update struct {
	obj  *uavobj.Object
	inst uint16
	at   time.Time
}

// Bridge publishes object updates and link stats, and forwards commands
// from the broker to the link.
type Bridge struct {
	Broker        Broker
	Link          Link
	Registry      *uavobj.Registry
	Timeout       time.Duration
	StatsInterval time.Duration

	updates chan update
}

// NewBridge creates a Bridge listening to updates of reg.
func NewBridge(broker Broker, link Link, reg *uavobj.Registry) *Bridge {
	b := &Bridge{
		Broker:        broker,
		Link:          link,
		Registry:      reg,
		Timeout:       250 * time.Millisecond,
		StatsInterval: 5 * time.Second,
		updates:       make(chan update, updateQueueSize),
	}
	reg.OnUpdate(uavobj.ObjectUpdatedFunc(b.objectUpdated))
	return b
}

// ObjectTopic returns the topic of an object instance.
func ObjectTopic(name string, inst uint16) string {
	return ObjectsTopic + "/" + name + "/" + strconv.Itoa(int(inst))
}

// ParseCommandTopic parses objects/<name>/<inst|all>/<cmd>.
func ParseCommandTopic(topic string) (name string, inst uint16, cmd string, err error) {
	tokens := strings.Split(topic, "/")
	if len(tokens) != 4 || tokens[0] != ObjectsTopic || tokens[1] == "" {
		err = &TopicError{Topic: topic}
		return
	}
	name, cmd = tokens[1], tokens[3]
	if tokens[2] == "all" {
		inst = talk.AllInstances
		return
	}
	n, e := strconv.ParseUint(tokens[2], 10, 16)
	if e != nil || n == uint64(talk.AllInstances) {
		err = &TopicError{Topic: topic}
		return
	}
	inst = uint16(n)
	return
}

// Run implements framework.Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	var subs []io.Closer
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()
	for _, cmd := range []string{SetCommand, ReqCommand} {
		sub, err := b.Broker.Subscribe(ObjectsTopic+"/+/+/"+cmd, func(topic string, payload []byte) {
			b.handleCommand(ctx, topic, payload)
		})
		if err != nil {
			return err
		}
		subs = append(subs, sub)
	}

	var statsCh <-chan time.Time
	if b.StatsInterval > 0 {
		ticker := time.NewTicker(b.StatsInterval)
		defer ticker.Stop()
		statsCh = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-b.updates:
			b.publishUpdate(u)
		case <-statsCh:
			b.publishStats()
		}
	}
}

func (b *Bridge) objectUpdated(obj *uavobj.Object, inst uint16) {
	select {
	case b.updates <- update{obj: obj, inst: inst, at: time.Now()}:
	default:
		glog.Warningf("update queue full, drop %s/%d", obj.Name(), inst)
	}
}

func (b *Bridge) publishUpdate(u update) {
	data, err := u.obj.Data(u.inst)
	if err != nil {
		return
	}
	b.publish(ObjectTopic(u.obj.Name(), u.inst), &msgs.ObjectUpdate{
		ObjectId:  u.obj.ID(),
		Name:      u.obj.Name(),
		Instance:  uint32(u.inst),
		Data:      data,
		Timestamp: u.at.UnixNano(),
	})
}

func (b *Bridge) publishStats() {
	s := b.Link.Stats()
	b.publish(StatsTopic, &msgs.LinkStats{
		TxBytes:       s.TxBytes,
		RxBytes:       s.RxBytes,
		TxObjectBytes: s.TxObjectBytes,
		RxObjectBytes: s.RxObjectBytes,
		TxObjects:     s.TxObjects,
		RxObjects:     s.RxObjects,
		TxErrors:      s.TxErrors,
		RxErrors:      s.RxErrors,
	})
}

func (b *Bridge) publish(topic string, msg msgs.Message) {
	payload, err := msgs.Encode(msg)
	if err == nil {
		err = b.Broker.Publish(topic, payload)
	}
	if err != nil {
		glog.Warningf("publish %s: %v", topic, err)
	}
}

func (b *Bridge) handleCommand(ctx context.Context, topic string, payload []byte) {
	err := b.runCommand(ctx, topic, payload)
	if err != nil {
		glog.Warningf("%s: %v", topic, err)
	}
	b.publish(topic+"/"+ResultSuffix, msgs.NewCommandResult(err))
}

func (b *Bridge) runCommand(ctx context.Context, topic string, payload []byte) error {
	name, inst, cmd, err := ParseCommandTopic(topic)
	if err != nil {
		return err
	}
	obj := b.Registry.GetByName(name)
	if obj == nil {
		return talk.ErrUnknownObject
	}
	var msg msgs.Message
	if len(payload) > 0 {
		if msg, err = msgs.DecodeMessage(payload); err != nil {
			return err
		}
	}
	switch cmd {
	case SetCommand:
		set, ok := msg.(*msgs.ObjectSet)
		if !ok {
			return ErrUnexpectedMessage
		}
		if inst == talk.AllInstances {
			return talk.ErrWildcardInstance
		}
		if err = obj.SetData(inst, set.Data); err != nil {
			return err
		}
		return b.Link.Send(ctx, obj.ID(), inst, set.Acked, b.Timeout)
	case ReqCommand:
		if req, ok := msg.(*msgs.ObjectRequest); ok && req.AllInstances {
			inst = talk.AllInstances
		} else if msg != nil && !ok {
			return ErrUnexpectedMessage
		}
		return b.Link.Request(ctx, obj.ID(), inst, b.Timeout)
	}
	return &TopicError{Topic: topic}
}
