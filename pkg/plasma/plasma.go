package plasma

import (
	"encoding/hex"

	"github.com/iotaledger/hive.go/ierrors"
)

const (
	// AddressLength is the length of an account identifier on the root ledger.
	AddressLength = 20

	// CurrencyIDLength is the length of an asset identifier on the root ledger.
	CurrencyIDLength = 20

	// IdentifierLength is the length of a generic 256-bit identifier.
	IdentifierLength = 32

	// SignatureLength is the length of a recoverable transaction witness.
	SignatureLength = 65

	// BlockInterval is the numbering cadence of child chain blocks committed to
	// the root ledger. Block numbers that are not multiples of the interval are
	// reserved for deposit blocks, so the two ranges can never collide.
	BlockInterval = 1000
)

// Address identifies an account on the root ledger.
type Address [AddressLength]byte

func (a Address) Bytes() ([]byte, error) {
	return a[:], nil
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func AddressFromBytes(b []byte) (Address, int, error) {
	var a Address
	if len(b) < AddressLength {
		return a, 0, ierrors.Errorf("invalid address length: expected %d, got %d", AddressLength, len(b))
	}
	copy(a[:], b[:AddressLength])

	return a, AddressLength, nil
}

// CurrencyID identifies an asset. The zero value denotes the base asset of the
// root ledger.
type CurrencyID [CurrencyIDLength]byte

// BaseAsset is the reserved currency identifier of the root ledger's native asset.
var BaseAsset = CurrencyID{}

func (c CurrencyID) Bytes() ([]byte, error) {
	return c[:], nil
}

func (c CurrencyID) String() string {
	return "0x" + hex.EncodeToString(c[:])
}

func CurrencyIDFromBytes(b []byte) (CurrencyID, int, error) {
	var c CurrencyID
	if len(b) < CurrencyIDLength {
		return c, 0, ierrors.Errorf("invalid currency length: expected %d, got %d", CurrencyIDLength, len(b))
	}
	copy(c[:], b[:CurrencyIDLength])

	return c, CurrencyIDLength, nil
}

// Identifier is a 256-bit identifier, used as the digest type of authenticated
// data structures.
type Identifier [IdentifierLength]byte

func (i Identifier) Bytes() ([]byte, error) {
	return i[:], nil
}

func (i Identifier) String() string {
	return "0x" + hex.EncodeToString(i[:])
}

func IdentifierFromBytes(b []byte) (Identifier, int, error) {
	var i Identifier
	if len(b) < IdentifierLength {
		return i, 0, ierrors.Errorf("invalid identifier length: expected %d, got %d", IdentifierLength, len(b))
	}
	copy(i[:], b[:IdentifierLength])

	return i, IdentifierLength, nil
}

// BlockNumber numbers blocks applied to the ledger. Child chain blocks are
// committed at multiples of BlockInterval; every other number belongs to the
// deposit range.
type BlockNumber uint64

// IsDeposit reports whether the block number lies in the deposit range.
func (b BlockNumber) IsDeposit() bool {
	return b%BlockInterval != 0
}
