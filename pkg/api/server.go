// Package api exposes the object registry and link over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"golang.org/x/net/websocket"

	"github.com/robotalks/telelink/pkg/framework"
	"github.com/robotalks/telelink/pkg/talk"
	"github.com/robotalks/telelink/pkg/uavobj"
)

// Link is the telemetry connection, implemented by talk.Conn.
type Link interface {
	Request(ctx context.Context, objID uint32, instID uint16, timeout time.Duration) error
	Send(ctx context.Context, objID uint32, instID uint16, acked bool, timeout time.Duration) error
	Stats() talk.Stats
	ResetStats()
}

var _ Link = (*talk.Conn)(nil)

const streamQueueSize = 64

// ObjectInfo describes an object in listings.
type ObjectInfo struct {
	ID             uint32         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	SingleInstance bool           `json:"single_instance"`
	Instances      uint16         `json:"instances"`
	Size           int            `json:"size"`
	Fields         []uavobj.Field `json:"fields"`
}

// InstanceData is the decoded data of an instance.
type InstanceData struct {
	Name     string        `json:"name"`
	Instance uint16        `json:"instance"`
	Values   uavobj.Values `json:"values"`
}

// Server serves the API.
type Server struct {
	Addr     string
	Link     Link
	Registry *uavobj.Registry
	Timeout  time.Duration

	router *mux.Router

	streamsLock sync.Mutex
	streams     map[chan InstanceData]struct{}
}

// NewServer creates a Server.
func NewServer(link Link, reg *uavobj.Registry) *Server {
	s := &Server{
		Link:     link,
		Registry: reg,
		Timeout:  250 * time.Millisecond,
		streams:  make(map[chan InstanceData]struct{}),
	}
	r := mux.NewRouter()
	r.HandleFunc("/objects", s.listObjects).Methods("GET")
	r.HandleFunc("/objects/{name}/{inst}", s.getObject).Methods("GET")
	r.HandleFunc("/objects/{name}/{inst}", s.setObject).Methods("PUT")
	r.HandleFunc("/objects/{name}/{inst}/request", s.requestObject).Methods("POST")
	r.HandleFunc("/stats", s.getStats).Methods("GET")
	r.HandleFunc("/stats", s.resetStats).Methods("DELETE")
	r.Handle("/stream", websocket.Handler(s.stream))
	s.router = r
	reg.OnUpdate(uavobj.ObjectUpdatedFunc(s.objectUpdated))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	glog.Infof("api listening on %s", ln.Addr())
	server := &http.Server{Handler: s}
	return framework.RunWithContextCloser(ctx, server, func() error {
		return server.Serve(ln)
	})
}

func (s *Server) listObjects(w http.ResponseWriter, r *http.Request) {
	objs := s.Registry.Objects()
	infos := make([]ObjectInfo, 0, len(objs))
	for _, obj := range objs {
		def := obj.Definition()
		infos = append(infos, ObjectInfo{
			ID:             obj.ID(),
			Name:           obj.Name(),
			Description:    def.Description,
			SingleInstance: obj.IsSingleInstance(),
			Instances:      obj.NumInstances(),
			Size:           obj.NumBytes(),
			Fields:         def.Fields,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) getObject(w http.ResponseWriter, r *http.Request) {
	obj, inst, err := s.resolve(r, false)
	if err != nil {
		writeError(w, err)
		return
	}
	values, err := obj.Decode(inst)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &InstanceData{Name: obj.Name(), Instance: inst, Values: values})
}

func (s *Server) setObject(w http.ResponseWriter, r *http.Request) {
	obj, inst, err := s.resolve(r, false)
	if err != nil {
		writeError(w, err)
		return
	}
	var values uavobj.Values
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err = decoder.Decode(&values); err != nil {
		writeError(w, &requestError{msg: "invalid body: " + err.Error()})
		return
	}
	data, err := obj.Encode(inst, values)
	if err == nil {
		err = obj.SetData(inst, data)
	}
	if err == nil {
		acked, _ := strconv.ParseBool(r.URL.Query().Get("ack"))
		err = s.Link.Send(r.Context(), obj.ID(), inst, acked, s.Timeout)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requestObject(w http.ResponseWriter, r *http.Request) {
	obj, inst, err := s.resolve(r, true)
	if err == nil {
		err = s.Link.Request(r.Context(), obj.ID(), inst, s.Timeout)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Link.Stats())
}

func (s *Server) resetStats(w http.ResponseWriter, r *http.Request) {
	s.Link.ResetStats()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resolve(r *http.Request, allowAll bool) (*uavobj.Object, uint16, error) {
	vars := mux.Vars(r)
	obj := s.Registry.GetByName(vars["name"])
	if obj == nil {
		return nil, 0, talk.ErrUnknownObject
	}
	if vars["inst"] == "all" {
		if !allowAll {
			return nil, 0, talk.ErrWildcardInstance
		}
		return obj, talk.AllInstances, nil
	}
	n, err := strconv.ParseUint(vars["inst"], 10, 16)
	if err != nil || n == uint64(talk.AllInstances) {
		return nil, 0, &requestError{msg: "invalid instance " + vars["inst"]}
	}
	return obj, uint16(n), nil
}
