// Package talk implements the object telemetry protocol engine.
package talk

// The protocol runs between a flight controller and a ground station over a
// single full-duplex byte stream (serial radio, cable or a TCP tunnel).
// Every transfer carries one instance of a registered object:
//
//	+------+------+--------+----------+----------+---------+----+
//	| 0x3c | kind | length | objectID | instance | payload | cs |
//	+------+------+--------+----------+----------+---------+----+
//	   1      1       2         4       0 or 2      0..255    1
//
// All multi-byte fields are little-endian. The instance field is present only
// for multi-instance objects. Length counts the header and the payload, the
// checksum is a CRC-8 over every preceding byte of the frame.
//
// There is no sequence number and no retransmission. A caller may wait for a
// single acknowledgment (Request, or Send with acked set) and at most one such
// transaction is outstanding per Conn.
