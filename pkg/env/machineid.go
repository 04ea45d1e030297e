package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves the unique ID identifying the machine, scoped to
// telelink so the raw ID isn't exposed.
func MachineID() string {
	id, err := machineid.ProtectedID("telelink")
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return "unknown"
	}
	return id
}

// ClientID returns the default MQTT client ID.
func ClientID() string {
	id := MachineID()
	if len(id) > 12 {
		id = id[:12]
	}
	return "telelink:" + id
}
