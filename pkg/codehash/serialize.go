package codehash

import "encoding/binary"

// ---------------------------------------------------------------------------
// Deterministic binary serialization fed into sha256.Sum256.
//
// Encoding conventions (matching the teacher's compiler/hash/serialize.go):
//   - First byte: HashVersion
//   - Strings: uint32 big-endian length + UTF-8 bytes
// ---------------------------------------------------------------------------

// Serialize produces the deterministic byte serialization of one
// (package name, source text) pair.
func Serialize(pkgName, sourceText string) []byte {
	s := &serializer{buf: make([]byte, 0, len(sourceText)+16)}
	s.writeByte(HashVersion)
	s.writeByte(tagPackageName)
	s.writeString(pkgName)
	s.writeByte(tagSourceText)
	s.writeString(sourceText)
	return s.buf
}

type serializer struct {
	buf []byte
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}
