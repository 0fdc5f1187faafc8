package utxoledger

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"

	"github.com/4siteweb/plasma-watcher/pkg/plasma"
)

// BlockRecord retains the exact transaction bytes a block committed to the
// root ledger, in commit order, so the block's merkle tree can be rebuilt
// later for proof composition. Records are immutable and kept indefinitely.
// Deposit blocks are retained as single-transaction records.
type BlockRecord struct {
	Number       plasma.BlockNumber
	Transactions [][]byte
}

func blockRecordKeyForNumber(number plasma.BlockNumber) []byte {
	byteBuffer := stream.NewByteBuffer(serializer.OneByte + serializer.UInt64ByteSize)

	// There can't be any errors.
	_ = stream.Write(byteBuffer, StoreKeyPrefixBlockRecord)
	_ = stream.Write(byteBuffer, number)

	return lo.PanicOnErr(byteBuffer.Bytes())
}

func (b *BlockRecord) KVStorableKey() []byte {
	return blockRecordKeyForNumber(b.Number)
}

func (b *BlockRecord) KVStorableValue() []byte {
	byteBuffer := stream.NewByteBuffer()

	// There can't be any errors.
	_ = stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint32, func() (elementsCount int, err error) {
		for _, txBytes := range b.Transactions {
			_ = stream.WriteBytesWithSize(byteBuffer, txBytes, serializer.SeriLengthPrefixTypeAsUint32)
		}

		return len(b.Transactions), nil
	})

	return lo.PanicOnErr(byteBuffer.Bytes())
}

func (b *BlockRecord) kvStorableLoad(_ *Manager, key []byte, value []byte) error {
	keyReader := stream.NewByteReader(key)

	var err error
	if _, err = stream.Read[byte](keyReader); err != nil {
		return ierrors.Wrap(err, "unable to read prefix")
	}
	if b.Number, err = stream.Read[plasma.BlockNumber](keyReader); err != nil {
		return ierrors.Wrap(err, "unable to read block number")
	}

	byteReader := stream.NewByteReader(value)

	txCount, err := stream.PeekSize(byteReader, serializer.SeriLengthPrefixTypeAsUint32)
	if err != nil {
		return ierrors.Wrap(err, "unable to peek transactions count")
	}

	transactions := make([][]byte, txCount)
	if err = stream.ReadCollection(byteReader, serializer.SeriLengthPrefixTypeAsUint32, func(i int) error {
		if transactions[i], err = stream.ReadBytesWithSize(byteReader, serializer.SeriLengthPrefixTypeAsUint32); err != nil {
			return ierrors.Wrapf(err, "unable to read bytes of transaction %d", i)
		}

		return nil
	}); err != nil {
		return ierrors.Wrap(err, "unable to read block record transactions")
	}
	b.Transactions = transactions

	return nil
}

// DB helper functions.

func storeBlockRecord(record *BlockRecord, mutations kvstore.BatchedMutations) error {
	return mutations.Set(record.KVStorableKey(), record.KVStorableValue())
}

// Manager functions.

func (m *Manager) BlockRecordWithoutLocking(number plasma.BlockNumber) (*BlockRecord, error) {
	key := blockRecordKeyForNumber(number)

	value, err := m.store.Get(key)
	if err != nil {
		return nil, err
	}

	record := &BlockRecord{}
	if err := record.kvStorableLoad(m, key, value); err != nil {
		return nil, err
	}

	return record, nil
}

func (m *Manager) BlockRecord(number plasma.BlockNumber) (*BlockRecord, error) {
	m.ReadLockLedger()
	defer m.ReadUnlockLedger()

	return m.BlockRecordWithoutLocking(number)
}

// HasBlockRecord reports whether a record is retained for the given number.
func (m *Manager) HasBlockRecord(number plasma.BlockNumber) (bool, error) {
	m.ReadLockLedger()
	defer m.ReadUnlockLedger()

	return m.store.Has(blockRecordKeyForNumber(number))
}

// code guards.
var _ kvStorable = &BlockRecord{}
