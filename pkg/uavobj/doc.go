// Package uavobj provides the object registry served over a telemetry link.
//
// Objects are declared in TOML:
//
//	[[object]]
//	id = 0x5c9cd5aa
//	name = "AttitudeActual"
//	single_instance = true
//	period_ms = 100
//
//	  [[object.field]]
//	  name = "Roll"
//	  type = "float32"
//	  units = "deg"
//
// Instance data is packed little-endian in field declaration order.
package uavobj
