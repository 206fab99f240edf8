package tx

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// encoder accumulates a transaction's canonical wire form: every field
// little-endian, every variable-length array length-prefixed as an unsigned
// varint, matching the encoding the canonical transaction hash is defined
// over.
type encoder struct {
	buf bytes.Buffer
}

func newEncoder() *encoder { return &encoder{} }

func (e *encoder) bytes() []byte { return e.buf.Bytes() }

func (e *encoder) writeUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	e.buf.Write(tmp[:n])
}

func (e *encoder) writeRaw(b []byte) { e.buf.Write(b) }

// writeBytes writes a varint length prefix followed by b, the standard
// shape every variable-length field (rings, memos, proofs) takes.
func (e *encoder) writeBytes(b []byte) {
	e.writeUvarint(uint64(len(b)))
	e.buf.Write(b)
}

func (e *encoder) writeU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) writeU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) writeU8(v uint8) { e.buf.WriteByte(v) }

// decoder walks a canonical encoding back apart. Every read validates
// enough remaining length, so malformed input fails with an error instead
// of a panic or an out-of-bounds read.
type decoder struct {
	buf []byte
	pos int
}

func newDecoder(b []byte) *decoder { return &decoder{buf: b} }

var errTruncated = fmt.Errorf("tx: canonical encoding truncated")

func (d *decoder) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.pos:])
	if n <= 0 {
		return 0, errTruncated
	}
	d.pos += n
	return v, nil
}

func (d *decoder) readBytes() ([]byte, error) {
	n, err := d.readUvarint()
	if err != nil {
		return nil, err
	}
	if uint64(len(d.buf)-d.pos) < n {
		return nil, errTruncated
	}
	b := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}

func (d *decoder) readU32() (uint32, error) {
	if len(d.buf)-d.pos < 4 {
		return 0, errTruncated
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *decoder) readU64() (uint64, error) {
	if len(d.buf)-d.pos < 8 {
		return 0, errTruncated
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *decoder) readU8() (uint8, error) {
	if len(d.buf)-d.pos < 1 {
		return 0, errTruncated
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) remaining() bool { return d.pos < len(d.buf) }
