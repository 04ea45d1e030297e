package api

import (
	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/telelink/pkg/uavobj"
)

func (s *Server) stream(conn *websocket.Conn) {
	ch := make(chan InstanceData, streamQueueSize)
	s.streamsLock.Lock()
	s.streams[ch] = struct{}{}
	s.streamsLock.Unlock()
	defer func() {
		s.streamsLock.Lock()
		delete(s.streams, ch)
		s.streamsLock.Unlock()
		conn.Close()
	}()

	// the client never sends, a read returns when it goes away
	closed := make(chan struct{})
	go func() {
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
		close(closed)
	}()

	glog.V(2).Infof("stream %s opened", conn.Request().RemoteAddr)
	for {
		select {
		case data := <-ch:
			if err := websocket.JSON.Send(conn, &data); err != nil {
				glog.V(2).Infof("stream %s closed: %v", conn.Request().RemoteAddr, err)
				return
			}
		case <-closed:
			glog.V(2).Infof("stream %s closed", conn.Request().RemoteAddr)
			return
		}
	}
}

func (s *Server) objectUpdated(obj *uavobj.Object, inst uint16) {
	s.streamsLock.Lock()
	n := len(s.streams)
	s.streamsLock.Unlock()
	if n == 0 {
		return
	}
	values, err := obj.Decode(inst)
	if err != nil {
		return
	}
	data := InstanceData{Name: obj.Name(), Instance: inst, Values: values}
	s.streamsLock.Lock()
	defer s.streamsLock.Unlock()
	for ch := range s.streams {
		select {
		case ch <- data:
		default:
			glog.Warningf("stream queue full, drop %s/%d", data.Name, inst)
		}
	}
}

// NumStreams returns the number of connected stream clients.
func (s *Server) NumStreams() int {
	s.streamsLock.Lock()
	defer s.streamsLock.Unlock()
	return len(s.streams)
}
