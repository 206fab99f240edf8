package ledger

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/botho-project/botho/pkg/tx"
)

// encoder is a minimal little-endian byte encoder: fixed-width fields are
// written raw, and writeUvarint supplies the length prefixes that
// variable-length data (UTXO records, domain-hash labels and parts) needs.
// It has fewer helpers than pkg/tx's encoder.
type encoder struct {
	buf []byte
}

func newEncoder() *encoder { return &encoder{} }

func (e *encoder) writeRaw(b []byte) { e.buf = append(e.buf, b...) }

func (e *encoder) writeU8(v uint8) { e.buf = append(e.buf, v) }

func (e *encoder) writeU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.writeRaw(b[:])
}

func (e *encoder) writeI64(v int64) { e.writeU64(uint64(v)) }

func (e *encoder) writeUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	e.writeRaw(tmp[:n])
}

// domainHash256 mirrors pkg/tx's own domain-separated SHA-256 construction:
// a length-prefixed ASCII label followed by each length-prefixed part.
func domainHash256(label string, parts ...[]byte) tx.Hash {
	h := sha256.New()
	e := newEncoder()
	e.writeUvarint(uint64(len(label)))
	e.writeRaw([]byte(label))
	h.Write(e.buf)
	for _, p := range parts {
		pe := newEncoder()
		pe.writeUvarint(uint64(len(p)))
		pe.writeRaw(p)
		h.Write(pe.buf)
	}
	var out tx.Hash
	copy(out[:], h.Sum(nil))
	return out
}
