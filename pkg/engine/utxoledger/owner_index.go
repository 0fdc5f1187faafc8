package utxoledger

import (
	"sort"

	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"

	"github.com/4siteweb/plasma-watcher/pkg/plasma"
)

// The owner index is a live materialized view over the primary output table:
// for every live output there is exactly one entry keyed by owner and
// position. Both tables are mutated in the same batched write, so readers can
// never observe them out of sync.

// PositionConsumer is a function that consumes a position.
// Returning false from this function indicates to abort the iteration.
type PositionConsumer func(position plasma.Position) bool

type LookupKey []byte

func lookupKeyOwnedOutput(owner plasma.Address, position plasma.Position) LookupKey {
	byteBuffer := stream.NewByteBuffer(serializer.OneByte + plasma.AddressLength + plasma.PositionLength)

	// There can't be any errors.
	_ = stream.Write(byteBuffer, StoreKeyPrefixOwnerIndex)
	_ = stream.WriteObject(byteBuffer, owner, plasma.Address.Bytes)
	_ = stream.WriteBytes(byteBuffer, lo.PanicOnErr(position.Bytes()))

	return lo.PanicOnErr(byteBuffer.Bytes())
}

func (o *Output) OwnerLookupKey() LookupKey {
	return lookupKeyOwnedOutput(o.owner, o.position)
}

func positionFromOwnerLookupKey(key LookupKey) (plasma.Position, error) {
	// Skip 1 byte prefix and the owner address.
	position, _, err := plasma.PositionFromBytes(key[1+plasma.AddressLength:])

	return position, err
}

func markAsOwned(output *Output, mutations kvstore.BatchedMutations) error {
	return mutations.Set(output.OwnerLookupKey(), []byte{})
}

func deleteOwnerLookup(output *Output, mutations kvstore.BatchedMutations) error {
	return mutations.Delete(output.OwnerLookupKey())
}

// ForEachUnspentPositionOfOwner calls the consumer for every live position
// currently owned by the given owner.
func (m *Manager) ForEachUnspentPositionOfOwner(owner plasma.Address, consumer PositionConsumer) error {
	m.ReadLockLedger()
	defer m.ReadUnlockLedger()

	return m.forEachUnspentPositionOfOwnerWithoutLocking(owner, consumer)
}

func (m *Manager) forEachUnspentPositionOfOwnerWithoutLocking(owner plasma.Address, consumer PositionConsumer) error {
	byteBuffer := stream.NewByteBuffer(serializer.OneByte + plasma.AddressLength)

	// There can't be any errors.
	_ = stream.Write(byteBuffer, StoreKeyPrefixOwnerIndex)
	_ = stream.WriteObject(byteBuffer, owner, plasma.Address.Bytes)

	var innerErr error
	if err := m.store.IterateKeys(lo.PanicOnErr(byteBuffer.Bytes()), func(key kvstore.Key) bool {
		position, err := positionFromOwnerLookupKey(key)
		if err != nil {
			innerErr = err

			return false
		}

		return consumer(position)
	}); err != nil {
		return err
	}

	return innerErr
}

// UnspentOutputsByOwner returns every currently live output owned by the given
// owner, ordered by position. An owner with no holdings yields an empty slice.
func (m *Manager) UnspentOutputsByOwner(owner plasma.Address) (Outputs, error) {
	m.ReadLockLedger()
	defer m.ReadUnlockLedger()

	var positions []plasma.Position
	if err := m.forEachUnspentPositionOfOwnerWithoutLocking(owner, func(position plasma.Position) bool {
		positions = append(positions, position)

		return true
	}); err != nil {
		return nil, err
	}

	// The backing store does not guarantee iteration order, so order the
	// snapshot explicitly.
	sort.Slice(positions, func(i int, j int) bool {
		return positions[i].Compare(positions[j]) < 0
	})

	outputs := make(Outputs, 0, len(positions))
	for _, position := range positions {
		output, err := m.ReadOutputByPositionWithoutLocking(position)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, output)
	}

	return outputs, nil
}
