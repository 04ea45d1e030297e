package msgs

import "github.com/golang/protobuf/proto"

// Type IDs.
const (
	ObjectUpdateTypeID  uint32 = 0x80010001
	LinkStatsTypeID     uint32 = 0x80010002
	ObjectSetTypeID     uint32 = 0x00010003
	ObjectRequestTypeID uint32 = 0x00010004
	CommandResultTypeID uint32 = 0x00018005
)

// ObjectUpdate carries the data of an object instance.
type ObjectUpdate struct {
	ObjectId  uint32 `protobuf:"varint,1,opt,name=object_id,proto3" json:"object_id,omitempty"`
	Name      string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	Instance  uint32 `protobuf:"varint,3,opt,name=instance,proto3" json:"instance,omitempty"`
	Data      []byte `protobuf:"bytes,4,opt,name=data,proto3" json:"data,omitempty"`
	Timestamp int64  `protobuf:"varint,5,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// TypeID implements Message.
func (m *ObjectUpdate) TypeID() uint32 { return ObjectUpdateTypeID }

// ProtoMessage implements proto.Message.
func (m *ObjectUpdate) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ObjectUpdate) Reset() { *m = ObjectUpdate{} }

// String implements proto.Message.
func (m *ObjectUpdate) String() string { return proto.CompactTextString(m) }

// LinkStats is a snapshot of link counters.
type LinkStats struct {
	TxBytes       uint64 `protobuf:"varint,1,opt,name=tx_bytes,proto3" json:"tx_bytes,omitempty"`
	RxBytes       uint64 `protobuf:"varint,2,opt,name=rx_bytes,proto3" json:"rx_bytes,omitempty"`
	TxObjectBytes uint64 `protobuf:"varint,3,opt,name=tx_object_bytes,proto3" json:"tx_object_bytes,omitempty"`
	RxObjectBytes uint64 `protobuf:"varint,4,opt,name=rx_object_bytes,proto3" json:"rx_object_bytes,omitempty"`
	TxObjects     uint64 `protobuf:"varint,5,opt,name=tx_objects,proto3" json:"tx_objects,omitempty"`
	RxObjects     uint64 `protobuf:"varint,6,opt,name=rx_objects,proto3" json:"rx_objects,omitempty"`
	TxErrors      uint64 `protobuf:"varint,7,opt,name=tx_errors,proto3" json:"tx_errors,omitempty"`
	RxErrors      uint64 `protobuf:"varint,8,opt,name=rx_errors,proto3" json:"rx_errors,omitempty"`
}

// TypeID implements Message.
func (m *LinkStats) TypeID() uint32 { return LinkStatsTypeID }

// ProtoMessage implements proto.Message.
func (m *LinkStats) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LinkStats) Reset() { *m = LinkStats{} }

// String implements proto.Message.
func (m *LinkStats) String() string { return proto.CompactTextString(m) }

// ObjectSet replaces the data of an object instance and sends it.
type ObjectSet struct {
	Data  []byte `protobuf:"bytes,1,opt,name=data,proto3" json:"data,omitempty"`
	Acked bool   `protobuf:"varint,2,opt,name=acked,proto3" json:"acked,omitempty"`
}

// TypeID implements Message.
func (m *ObjectSet) TypeID() uint32 { return ObjectSetTypeID }

// ProtoMessage implements proto.Message.
func (m *ObjectSet) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ObjectSet) Reset() { *m = ObjectSet{} }

// String implements proto.Message.
func (m *ObjectSet) String() string { return proto.CompactTextString(m) }

// ObjectRequest asks the peer for an object.
type ObjectRequest struct {
	AllInstances bool `protobuf:"varint,1,opt,name=all_instances,proto3" json:"all_instances,omitempty"`
}

// TypeID implements Message.
func (m *ObjectRequest) TypeID() uint32 { return ObjectRequestTypeID }

// ProtoMessage implements proto.Message.
func (m *ObjectRequest) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ObjectRequest) Reset() { *m = ObjectRequest{} }

// String implements proto.Message.
func (m *ObjectRequest) String() string { return proto.CompactTextString(m) }

// CommandResult is the reply of ObjectSet and ObjectRequest.
type CommandResult struct {
	Error string `protobuf:"bytes,1,opt,name=error,proto3" json:"error,omitempty"`
}

// NewCommandResult creates a CommandResult from an error.
func NewCommandResult(err error) *CommandResult {
	if err == nil {
		return &CommandResult{}
	}
	return &CommandResult{Error: err.Error()}
}

// TypeID implements Message.
func (m *CommandResult) TypeID() uint32 { return CommandResultTypeID }

// ProtoMessage implements proto.Message.
func (m *CommandResult) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandResult) Reset() { *m = CommandResult{} }

// String implements proto.Message.
func (m *CommandResult) String() string { return proto.CompactTextString(m) }
