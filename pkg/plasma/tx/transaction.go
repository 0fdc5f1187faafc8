// Package tx models the transfer transactions consumed by the ledger engine
// and defines their canonical byte serialization. The serialized bytes are
// what block records retain and what the block commitment's merkle tree is
// built over.
package tx

import (
	"math"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"

	"github.com/4siteweb/plasma-watcher/pkg/plasma"
)

var (
	// ErrInvalidSignatureLength is returned if a witness is not exactly
	// plasma.SignatureLength bytes.
	ErrInvalidSignatureLength = ierrors.New("invalid signature length")

	// ErrTooManyElements is returned if an input, output or signature list
	// exceeds the uint16 count the canonical serialization carries.
	ErrTooManyElements = ierrors.New("too many elements to serialize")
)

// Output is a single transfer output: the receiving owner, the transferred
// asset and the transferred amount.
type Output struct {
	Owner    plasma.Address
	Currency plasma.CurrencyID
	Amount   uint64
}

// Transaction is a transfer transaction as consumed by the ledger applier.
// Inputs reference previously live outputs by position, outputs create new
// ones. A transaction with no inputs and no outputs is a valid no-op; it still
// occupies its transaction slot in the block commitment.
type Transaction struct {
	Inputs     []plasma.Position
	Outputs    []Output
	Signatures [][]byte
}

// IsEmpty reports whether the transaction contributes no state change.
func (t *Transaction) IsEmpty() bool {
	return len(t.Inputs) == 0 && len(t.Outputs) == 0
}

// Bytes returns the canonical serialization of the transaction.
func (t *Transaction) Bytes() ([]byte, error) {
	if len(t.Inputs) > math.MaxUint16 {
		return nil, ierrors.Wrapf(ErrTooManyElements, "%d inputs exceed %d", len(t.Inputs), math.MaxUint16)
	}
	if len(t.Outputs) > math.MaxUint16 {
		return nil, ierrors.Wrapf(ErrTooManyElements, "%d outputs exceed %d", len(t.Outputs), math.MaxUint16)
	}
	if len(t.Signatures) > math.MaxUint16 {
		return nil, ierrors.Wrapf(ErrTooManyElements, "%d signatures exceed %d", len(t.Signatures), math.MaxUint16)
	}

	byteBuffer := stream.NewByteBuffer()

	if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint16, func() (int, error) {
		for i, input := range t.Inputs {
			key, err := input.Encode()
			if err != nil {
				return 0, ierrors.Wrapf(err, "unable to serialize input %d", i)
			}
			if err := stream.Write(byteBuffer, key); err != nil {
				return 0, ierrors.Wrapf(err, "unable to write input %d", i)
			}
		}

		return len(t.Inputs), nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "unable to write inputs")
	}

	if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint16, func() (int, error) {
		for i, output := range t.Outputs {
			if err := stream.WriteObject(byteBuffer, output.Owner, plasma.Address.Bytes); err != nil {
				return 0, ierrors.Wrapf(err, "unable to write output %d owner", i)
			}
			if err := stream.WriteObject(byteBuffer, output.Currency, plasma.CurrencyID.Bytes); err != nil {
				return 0, ierrors.Wrapf(err, "unable to write output %d currency", i)
			}
			if err := stream.Write(byteBuffer, output.Amount); err != nil {
				return 0, ierrors.Wrapf(err, "unable to write output %d amount", i)
			}
		}

		return len(t.Outputs), nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "unable to write outputs")
	}

	if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint16, func() (int, error) {
		for i, signature := range t.Signatures {
			if len(signature) != plasma.SignatureLength {
				return 0, ierrors.Wrapf(ErrInvalidSignatureLength, "expected %d bytes, got %d", plasma.SignatureLength, len(signature))
			}
			if err := stream.WriteBytes(byteBuffer, signature); err != nil {
				return 0, ierrors.Wrapf(err, "unable to write signature %d", i)
			}
		}

		return len(t.Signatures), nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "unable to write signatures")
	}

	return byteBuffer.Bytes()
}

// FromBytes parses a transaction from its canonical serialization.
func FromBytes(b []byte) (*Transaction, error) {
	byteReader := stream.NewByteReader(b)
	transaction := &Transaction{}

	inputsCount, err := stream.PeekSize(byteReader, serializer.SeriLengthPrefixTypeAsUint16)
	if err != nil {
		return nil, ierrors.Wrap(err, "unable to peek inputs count")
	}

	inputs := make([]plasma.Position, inputsCount)
	if err := stream.ReadCollection(byteReader, serializer.SeriLengthPrefixTypeAsUint16, func(i int) error {
		key, err := stream.Read[uint64](byteReader)
		if err != nil {
			return ierrors.Wrapf(err, "unable to read input %d", i)
		}

		if inputs[i], err = plasma.DecodePosition(key); err != nil {
			return ierrors.Wrapf(err, "unable to decode input %d", i)
		}

		return nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "unable to read inputs")
	}
	transaction.Inputs = inputs

	outputsCount, err := stream.PeekSize(byteReader, serializer.SeriLengthPrefixTypeAsUint16)
	if err != nil {
		return nil, ierrors.Wrap(err, "unable to peek outputs count")
	}

	outputs := make([]Output, outputsCount)
	if err := stream.ReadCollection(byteReader, serializer.SeriLengthPrefixTypeAsUint16, func(i int) error {
		var err error
		if outputs[i].Owner, err = stream.ReadObject(byteReader, plasma.AddressLength, plasma.AddressFromBytes); err != nil {
			return ierrors.Wrapf(err, "unable to read output %d owner", i)
		}
		if outputs[i].Currency, err = stream.ReadObject(byteReader, plasma.CurrencyIDLength, plasma.CurrencyIDFromBytes); err != nil {
			return ierrors.Wrapf(err, "unable to read output %d currency", i)
		}
		if outputs[i].Amount, err = stream.Read[uint64](byteReader); err != nil {
			return ierrors.Wrapf(err, "unable to read output %d amount", i)
		}

		return nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "unable to read outputs")
	}
	transaction.Outputs = outputs

	signaturesCount, err := stream.PeekSize(byteReader, serializer.SeriLengthPrefixTypeAsUint16)
	if err != nil {
		return nil, ierrors.Wrap(err, "unable to peek signatures count")
	}

	signatures := make([][]byte, signaturesCount)
	if err := stream.ReadCollection(byteReader, serializer.SeriLengthPrefixTypeAsUint16, func(i int) error {
		signature, err := stream.ReadBytes(byteReader, plasma.SignatureLength)
		if err != nil {
			return ierrors.Wrapf(err, "unable to read signature %d", i)
		}
		signatures[i] = signature[:]

		return nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "unable to read signatures")
	}
	transaction.Signatures = signatures

	return transaction, nil
}
