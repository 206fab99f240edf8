package keys

import (
	"encoding/binary"

	"github.com/tyler-smith/go-bip39"

	"github.com/botho-project/botho/pkg/crypto/pqkem"
	"github.com/botho-project/botho/pkg/crypto/pqsig"
	"github.com/botho-project/botho/pkg/curve"
)

// Address is a botho public address: a view key for output scanning and a
// spend key for ownership. The zero-index subaddress of any wallet equals
// its primary address. IsSubaddress records which of the two incompatible
// stealth-output constructions a sender must use to pay it: Monero's
// subaddress scheme requires the sender to transmit its ephemeral key as
// r*SpendPub rather than r*G whenever the destination is not a primary
// address (see NewStealthOutput), and there is no way to tell the two
// apart from the public keys alone.
type Address struct {
	ViewPub      *curve.Point
	SpendPub     *curve.Point
	IsSubaddress bool
}

// Bytes concatenates the view key, spend key, and subaddress flag into the
// 65-byte wire encoding carried in transaction outputs and address strings.
func (a Address) Bytes() []byte {
	out := make([]byte, 0, 65)
	out = append(out, a.ViewPub.Bytes()...)
	out = append(out, a.SpendPub.Bytes()...)
	if a.IsSubaddress {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	return out
}

// AddressFromBytes decodes a 65-byte address encoding.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != 65 {
		return Address{}, ErrMalformedAddress
	}
	view, err := curve.PointFromCanonicalBytes(b[:32])
	if err != nil {
		return Address{}, err
	}
	spend, err := curve.PointFromCanonicalBytes(b[32:64])
	if err != nil {
		return Address{}, err
	}
	return Address{ViewPub: view, SpendPub: spend, IsSubaddress: b[64] != 0}, nil
}

// Index identifies a subaddress within a wallet. The primary address is
// Index{0, 0}.
type Index struct {
	Major uint32
	Minor uint32
}

// WalletKeys holds a wallet's full derived key material: the classical view
// and spend scalars, and the post-quantum KEM/signature identity keys
// derived alongside them from the same mnemonic.
type WalletKeys struct {
	Account uint32

	ViewPriv  *curve.Scalar
	SpendPriv *curve.Scalar

	PQKEMPub  *pqkem.PublicKey
	PQKEMPriv *pqkem.PrivateKey
	PQSigPub  *pqsig.PublicKey
	PQSigPriv *pqsig.PrivateKey
}

// NewWalletFromMnemonic derives a wallet's full key set from a BIP-39
// mnemonic and optional passphrase, following m/44'/866'/account'.
func NewWalletFromMnemonic(mnemonic, passphrase string, account uint32) (*WalletKeys, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	node := accountNode(seed, account)

	viewPriv, err := roleScalar(node, "view")
	if err != nil {
		return nil, err
	}
	spendPriv, err := roleScalar(node, "spend")
	if err != nil {
		return nil, err
	}

	kemSeed, err := roleSeed(node, "pq-kem", pqkem.SeedSize())
	if err != nil {
		return nil, err
	}
	kemPub, kemPriv, err := pqkem.DeriveKeyPair(kemSeed)
	if err != nil {
		return nil, err
	}

	sigSeed, err := roleSeed(node, "pq-sig", pqsig.SeedSize())
	if err != nil {
		return nil, err
	}
	sigPub, sigPriv, err := pqsig.DeriveKeyPair(sigSeed)
	if err != nil {
		return nil, err
	}

	return &WalletKeys{
		Account:   account,
		ViewPriv:  viewPriv,
		SpendPriv: spendPriv,
		PQKEMPub:  kemPub,
		PQKEMPriv: kemPriv,
		PQSigPub:  sigPub,
		PQSigPriv: sigPriv,
	}, nil
}

// Close zeroes the wallet's classical private scalars in place. The
// post-quantum private keys are CIRCL-managed and are left to the garbage
// collector, matching how they are treated everywhere else they are held.
func (w *WalletKeys) Close() {
	w.ViewPriv.Zero()
	w.SpendPriv.Zero()
}

// PrimaryAddress returns the wallet's Index{0,0} address.
func (w *WalletKeys) PrimaryAddress() Address {
	return Address{
		ViewPub:  curve.ScalarBaseMult(w.ViewPriv),
		SpendPub: curve.ScalarBaseMult(w.SpendPriv),
	}
}

// subaddressScalar computes m = Hs("botho-subaddr" || a || major || minor),
// the per-index blinding factor that shifts the spend public key without
// revealing the relationship between subaddresses to an observer who lacks
// the view private key.
func (w *WalletKeys) subaddressScalar(idx Index) *curve.Scalar {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], idx.Major)
	binary.LittleEndian.PutUint32(buf[4:8], idx.Minor)
	return curve.HashToScalar("botho-subaddr", w.ViewPriv.Bytes(), buf[:])
}

// Subaddress derives the public address at idx. Index{0,0} is defined to
// equal PrimaryAddress exactly, matching the convention that every wallet's
// subaddress table includes its own primary address at the origin.
func (w *WalletKeys) Subaddress(idx Index) Address {
	if idx.Major == 0 && idx.Minor == 0 {
		return w.PrimaryAddress()
	}
	m := w.subaddressScalar(idx)
	spendPub := curve.ScalarBaseMult(w.SpendPriv).Add(curve.ScalarBaseMult(m))
	viewPub := spendPub.ScalarMult(w.ViewPriv)
	return Address{ViewPub: viewPub, SpendPub: spendPub, IsSubaddress: true}
}
