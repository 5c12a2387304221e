// Package settings implements durable storage for the alarm configuration.
//
// Storage is a byte-addressable medium with read, write and write-if-changed
// semantics. MemoryStorage and FileStorage emulate an EEPROM chip in memory
// and in an image file. Record maps the fixed 7-byte Layout onto a Storage at
// a base offset and exposes typed little-endian field access.
package settings
