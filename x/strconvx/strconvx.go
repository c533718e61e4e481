// Package strconvx parses numeric fields straight out of receive buffers.
//
// Text protocols (NMEA sentences, AT responses) hand the drivers byte
// slices. On the host these helpers delegate to strconv; on the RP2040 they
// are small loops that avoid pulling strconv's float tables into flash.
// Decimal floats are accepted in plain d.ddd form only.
package strconvx
