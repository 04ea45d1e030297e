package api

import (
	"encoding/json"
	"net/http"

	"github.com/golang/glog"

	"github.com/robotalks/telelink/pkg/talk"
	"github.com/robotalks/telelink/pkg/uavobj"
)

type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

// ErrorReply is the body of a failed request.
type ErrorReply struct {
	Error string `json:"error"`
}

func statusOf(err error) int {
	switch err.(type) {
	case *requestError, *uavobj.FieldError, *talk.UnpackError:
		return http.StatusBadRequest
	}
	switch err {
	case talk.ErrUnknownObject, uavobj.ErrNoInstance:
		return http.StatusNotFound
	case talk.ErrWildcardInstance, uavobj.ErrSizeMismatch, talk.ErrPayloadTooLarge:
		return http.StatusBadRequest
	case talk.ErrTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		glog.Errorf("api: %v", err)
	}
	writeJSON(w, status, &ErrorReply{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Warningf("api: write reply: %v", err)
	}
}
