package utxoledger

import (
	"bytes"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"

	"github.com/4siteweb/plasma-watcher/pkg/plasma"
)

// LexicalOrderedOutputs are outputs ordered in lexical order by their position
// key, which equals the total order over positions.
type LexicalOrderedOutputs []*Output

func (l LexicalOrderedOutputs) Len() int {
	return len(l)
}

func (l LexicalOrderedOutputs) Less(i int, j int) bool {
	return bytes.Compare(lo.PanicOnErr(l[i].position.Bytes()), lo.PanicOnErr(l[j].position.Bytes())) < 0
}

func (l LexicalOrderedOutputs) Swap(i int, j int) {
	l[i], l[j] = l[j], l[i]
}

// Output is a live (unspent) transfer output. It is a write-once value:
// spending removes it from the live set, it is never mutated in place.
type Output struct {
	position plasma.Position
	owner    plasma.Address
	currency plasma.CurrencyID
	amount   uint64
}

func NewOutput(position plasma.Position, owner plasma.Address, currency plasma.CurrencyID, amount uint64) *Output {
	return &Output{
		position: position,
		owner:    owner,
		currency: currency,
		amount:   amount,
	}
}

func (o *Output) Position() plasma.Position {
	return o.position
}

func (o *Output) Owner() plasma.Address {
	return o.owner
}

func (o *Output) Currency() plasma.CurrencyID {
	return o.currency
}

func (o *Output) Amount() uint64 {
	return o.amount
}

func (o *Output) MapKey() string {
	return string(lo.PanicOnErr(o.position.Bytes()))
}

type Outputs []*Output

// - kvStorable

func outputStorageKeyForPosition(position plasma.Position) []byte {
	byteBuffer := stream.NewByteBuffer(serializer.OneByte + plasma.PositionLength)

	// There can't be any errors.
	_ = stream.Write(byteBuffer, StoreKeyPrefixOutput)
	_ = stream.WriteBytes(byteBuffer, lo.PanicOnErr(position.Bytes()))

	return lo.PanicOnErr(byteBuffer.Bytes())
}

func (o *Output) KVStorableKey() (key []byte) {
	return outputStorageKeyForPosition(o.position)
}

func (o *Output) KVStorableValue() (value []byte) {
	byteBuffer := stream.NewByteBuffer(plasma.AddressLength + plasma.CurrencyIDLength + serializer.UInt64ByteSize)

	// There can't be any errors.
	_ = stream.WriteObject(byteBuffer, o.owner, plasma.Address.Bytes)
	_ = stream.WriteObject(byteBuffer, o.currency, plasma.CurrencyID.Bytes)
	_ = stream.Write(byteBuffer, o.amount)

	return lo.PanicOnErr(byteBuffer.Bytes())
}

func (o *Output) kvStorableLoad(_ *Manager, key []byte, value []byte) error {
	var err error

	if o.position, _, err = plasma.PositionFromBytes(key[1:]); err != nil {
		return ierrors.Wrap(err, "unable to read position")
	}

	valueReader := stream.NewByteReader(value)

	if o.owner, err = stream.ReadObject(valueReader, plasma.AddressLength, plasma.AddressFromBytes); err != nil {
		return ierrors.Wrap(err, "unable to read owner")
	}
	if o.currency, err = stream.ReadObject(valueReader, plasma.CurrencyIDLength, plasma.CurrencyIDFromBytes); err != nil {
		return ierrors.Wrap(err, "unable to read currency")
	}
	if o.amount, err = stream.Read[uint64](valueReader); err != nil {
		return ierrors.Wrap(err, "unable to read amount")
	}

	return nil
}

// - Helper

func storeOutput(output *Output, mutations kvstore.BatchedMutations) error {
	return mutations.Set(output.KVStorableKey(), output.KVStorableValue())
}

func deleteOutput(output *Output, mutations kvstore.BatchedMutations) error {
	return mutations.Delete(output.KVStorableKey())
}

// - Manager

func (m *Manager) ReadOutputByPositionWithoutLocking(position plasma.Position) (*Output, error) {
	key := outputStorageKeyForPosition(position)
	value, err := m.store.Get(key)
	if err != nil {
		return nil, err
	}

	output := &Output{}
	if err := output.kvStorableLoad(m, key, value); err != nil {
		return nil, err
	}

	return output, nil
}

func (m *Manager) ReadOutputByPosition(position plasma.Position) (*Output, error) {
	m.ReadLockLedger()
	defer m.ReadUnlockLedger()

	return m.ReadOutputByPositionWithoutLocking(position)
}

// IsPositionUnspentWithoutLocking reports whether the position is in the live set.
func (m *Manager) IsPositionUnspentWithoutLocking(position plasma.Position) (bool, error) {
	return m.store.Has(outputStorageKeyForPosition(position))
}

// code guards.
var _ kvStorable = &Output{}
