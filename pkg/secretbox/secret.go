// Package secretbox wraps secret material (private scalars, PQ secret keys,
// mnemonic seeds) in a type that is zeroed on every exit path and refuses to
// be serialized or printed, per the zero-on-drop invariant in spec section 9.
package secretbox

import (
	"fmt"
	"runtime"
)

// Secret holds a byte-slice-shaped secret. The zero value is not usable;
// construct with New. Close (or letting the finalizer run) zeroes the
// backing array. Secret deliberately has no exported fields so it cannot be
// copied into a plain struct without going through Bytes(), which callers
// must treat as a borrow, not an owned copy.
type Secret struct {
	buf     []byte
	closed  bool
}

// New copies b into a freshly owned buffer and arranges for it to be zeroed
// either explicitly (Close) or when the Secret is garbage collected.
func New(b []byte) *Secret {
	s := &Secret{buf: append([]byte(nil), b...)}
	runtime.SetFinalizer(s, func(s *Secret) { s.Close() })
	return s
}

// Bytes returns the live backing buffer. The caller must not retain it past
// the Secret's lifetime and must not mutate it unless intentionally updating
// the secret in place.
func (s *Secret) Bytes() []byte {
	if s.closed {
		return nil
	}
	return s.buf
}

// Len reports the secret's length without exposing its contents.
func (s *Secret) Len() int {
	return len(s.buf)
}

// Close zeroes the backing buffer. Safe to call multiple times.
func (s *Secret) Close() {
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.closed = true
	runtime.SetFinalizer(s, nil)
}

const redactionMarker = "<redacted-secret>"

// String never reveals the secret; it exists only so accidental fmt.Println
// / logging calls degrade safely instead of leaking key material.
func (s *Secret) String() string {
	return redactionMarker
}

// Format implements fmt.Formatter so that %v, %x, %q etc. all redact.
func (s *Secret) Format(f fmt.State, verb rune) {
	fmt.Fprint(f, redactionMarker)
}

// MarshalJSON always fails: secrets must never be serialized via the
// standard encoders. Callers that legitimately need to persist a secret
// (e.g. a wallet file) must do so through an explicit, clearly-named export
// path, not through json.Marshal.
func (s *Secret) MarshalJSON() ([]byte, error) {
	return nil, fmt.Errorf("secretbox: refusing to marshal secret material")
}
