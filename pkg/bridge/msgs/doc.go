// Package msgs defines the messages published by the telemetry bridge.
package msgs

// Every payload on the broker is a Typed envelope: a type ID plus the
// protobuf encoding of the message, so a monitor can decode any topic
// without knowing its layout in advance.
