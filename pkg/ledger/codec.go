package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/botho-project/botho/pkg/crypto/commitment"
	"github.com/botho-project/botho/pkg/curve"
	"github.com/botho-project/botho/pkg/tx"
)

// Encode produces u's on-disk encoding: pkg/storage persists this blob
// verbatim under the UTXO's key, and Decode reconstructs the typed value
// on read. This is separate from any transaction's canonical hash
// encoding; it only needs to round-trip, not match a domain-separated hash
// input.
func (u *UTXO) Encode() []byte {
	e := newEncoder()
	e.writeRaw(u.TxHash[:])
	e.writeU32(u.OutputIndex)
	e.writeRaw(u.OneTimePublicKey.Bytes())
	e.writeRaw(u.Commitment.Bytes())
	e.writeUvarint(uint64(len(u.Tags.Entries)))
	for _, entry := range u.Tags.Entries {
		e.writeRaw(entry.ClusterID[:])
		e.writeU32(entry.WeightPPM)
	}
	e.writeU64(u.CreationHeight)
	e.writeUvarint(uint64(len(u.EncryptedMemo)))
	e.writeRaw(u.EncryptedMemo)
	return e.buf
}

func (e *encoder) writeU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.writeRaw(b[:])
}

// decoder reads back the fields encoder writes, erroring on truncation
// instead of panicking — a malformed on-disk record must surface as a
// typed error, not crash the reading goroutine.
type decoder struct {
	buf []byte
	pos int
}

func newDecoder(b []byte) *decoder { return &decoder{buf: b} }

func (d *decoder) readRaw(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, errTruncatedRecord
	}
	out := d.buf[d.pos : d.pos+n]
	d.pos += n
	return out, nil
}

func (d *decoder) readU32() (uint32, error) {
	b, err := d.readRaw(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *decoder) readU64() (uint64, error) {
	b, err := d.readRaw(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *decoder) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.pos:])
	if n <= 0 {
		return 0, errTruncatedRecord
	}
	d.pos += n
	return v, nil
}

// DecodeUTXO reconstructs a UTXO from the bytes Encode produced.
func DecodeUTXO(b []byte) (*UTXO, error) {
	d := newDecoder(b)

	txHashBytes, err := d.readRaw(32)
	if err != nil {
		return nil, fmt.Errorf("ledger: decode utxo txid: %w", err)
	}
	var u UTXO
	copy(u.TxHash[:], txHashBytes)

	if u.OutputIndex, err = d.readU32(); err != nil {
		return nil, fmt.Errorf("ledger: decode utxo output index: %w", err)
	}

	pubBytes, err := d.readRaw(32)
	if err != nil {
		return nil, fmt.Errorf("ledger: decode utxo one-time key: %w", err)
	}
	if u.OneTimePublicKey, err = curve.PointFromCanonicalBytes(pubBytes); err != nil {
		return nil, fmt.Errorf("ledger: decode utxo one-time key: %w", err)
	}

	commitBytes, err := d.readRaw(32)
	if err != nil {
		return nil, fmt.Errorf("ledger: decode utxo commitment: %w", err)
	}
	if u.Commitment, err = commitment.FromBytes(commitBytes); err != nil {
		return nil, fmt.Errorf("ledger: decode utxo commitment: %w", err)
	}

	entryCount, err := d.readUvarint()
	if err != nil {
		return nil, fmt.Errorf("ledger: decode utxo tag count: %w", err)
	}
	entries := make([]tx.ClusterTag, 0, entryCount)
	for i := uint64(0); i < entryCount; i++ {
		idBytes, err := d.readRaw(32)
		if err != nil {
			return nil, fmt.Errorf("ledger: decode utxo tag id: %w", err)
		}
		weight, err := d.readU32()
		if err != nil {
			return nil, fmt.Errorf("ledger: decode utxo tag weight: %w", err)
		}
		var entry tx.ClusterTag
		copy(entry.ClusterID[:], idBytes)
		entry.WeightPPM = weight
		entries = append(entries, entry)
	}
	u.Tags = tx.TagVector{Entries: entries}

	if u.CreationHeight, err = d.readU64(); err != nil {
		return nil, fmt.Errorf("ledger: decode utxo creation height: %w", err)
	}

	memoLen, err := d.readUvarint()
	if err != nil {
		return nil, fmt.Errorf("ledger: decode utxo memo length: %w", err)
	}
	memo, err := d.readRaw(int(memoLen))
	if err != nil {
		return nil, fmt.Errorf("ledger: decode utxo memo: %w", err)
	}
	if memoLen > 0 {
		u.EncryptedMemo = append([]byte(nil), memo...)
	}

	return &u, nil
}
