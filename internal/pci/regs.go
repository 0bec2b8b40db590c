package pci

import "encoding/binary"

// Reader is a positional, seekless byte-range reader over one device's config
// space. Implementations (see internal/access) back it with sysfs or procfs
// I/O; offsets are little-endian on all supported hardware (PCIe spec).
type Reader interface {
	ReadAt(buf []byte, offset int64) bool
}

// ReadU8 reads a single byte at offset. ok is false on any I/O failure.
func ReadU8(r Reader, offset int) (val uint8, ok bool) {
	var buf [1]byte
	if !r.ReadAt(buf[:], int64(offset)) {
		return 0, false
	}
	return buf[0], true
}

// ReadU16 reads a little-endian 16-bit word at offset.
func ReadU16(r Reader, offset int) (val uint16, ok bool) {
	var buf [2]byte
	if !r.ReadAt(buf[:], int64(offset)) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(buf[:]), true
}

// ReadU32 reads a little-endian 32-bit word at offset.
func ReadU32(r Reader, offset int) (val uint32, ok bool) {
	var buf [4]byte
	if !r.ReadAt(buf[:], int64(offset)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(buf[:]), true
}
