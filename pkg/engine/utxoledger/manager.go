package utxoledger

import (
	"github.com/iotaledger/hive.go/ads"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/runtime/syncutils"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"

	"github.com/4siteweb/plasma-watcher/pkg/plasma"
	"github.com/4siteweb/plasma-watcher/pkg/plasma/tx"
)

// ErrWrongBlockNumberRange is returned if a block is applied with a number
// from the deposit range or vice versa.
var ErrWrongBlockNumberRange = ierrors.New("block number in wrong range")

// Manager is the versioned store of live transfer outputs. It supports many
// concurrent readers and a single writer; every state transition is applied as
// one batched mutation, so readers never observe a partially applied block.
//
// Input validity is an upstream precondition: blocks reaching the manager have
// already been validated, and are expected in non-decreasing block number
// order. A missing input at apply time therefore means the caller is broken,
// and the manager fails loudly instead of corrupting the owner index.
type Manager struct {
	store     kvstore.KVStore
	storeLock syncutils.RWMutex

	stateTree ads.Map[plasma.Identifier, plasma.Position, *stateTreeMetadata]
}

func New(store kvstore.KVStore) *Manager {
	return &Manager{
		store:     store,
		stateTree: newStateTree(store),
	}
}

func newStateTree(store kvstore.KVStore) ads.Map[plasma.Identifier, plasma.Position, *stateTreeMetadata] {
	return ads.NewMap[plasma.Identifier](
		lo.PanicOnErr(store.WithExtendedRealm(kvstore.Realm{StoreKeyPrefixStateTree})),
		plasma.Identifier.Bytes,
		plasma.IdentifierFromBytes,
		plasma.Position.Bytes,
		plasma.PositionFromBytes,
		(*stateTreeMetadata).Bytes,
		stateTreeMetadataFromBytes,
	)
}

// KVStore returns the underlying KVStore.
func (m *Manager) KVStore() kvstore.KVStore {
	return m.store
}

// ClearLedgerState removes all entries from the ledger.
func (m *Manager) ClearLedgerState() (err error) {
	m.WriteLockLedger()
	defer m.WriteUnlockLedger()

	defer func() {
		if errFlush := m.store.Flush(); err == nil && errFlush != nil {
			err = errFlush
		}
	}()

	if err := m.store.Clear(); err != nil {
		return err
	}

	// The state tree caches its root in memory, so it is recreated over the
	// now-empty realm.
	m.stateTree = newStateTree(m.store)

	return nil
}

func (m *Manager) ReadLockLedger() {
	m.storeLock.RLock()
}

func (m *Manager) ReadUnlockLedger() {
	m.storeLock.RUnlock()
}

func (m *Manager) WriteLockLedger() {
	m.storeLock.Lock()
}

func (m *Manager) WriteUnlockLedger() {
	m.storeLock.Unlock()
}

func storeLedgerBlockNumber(number plasma.BlockNumber, mutations kvstore.BatchedMutations) error {
	byteBuffer := stream.NewByteBuffer(serializer.UInt64ByteSize)

	// There can't be any errors.
	_ = stream.Write(byteBuffer, number)

	return mutations.Set([]byte{StoreKeyPrefixLedgerBlockNumber}, lo.PanicOnErr(byteBuffer.Bytes()))
}

// ReadLedgerBlockNumberWithoutLocking returns the highest applied block
// number, or 0 if nothing has been applied yet.
func (m *Manager) ReadLedgerBlockNumberWithoutLocking() (plasma.BlockNumber, error) {
	value, err := m.store.Get([]byte{StoreKeyPrefixLedgerBlockNumber})
	if err != nil {
		if ierrors.Is(err, kvstore.ErrKeyNotFound) {
			return 0, nil
		}

		return 0, ierrors.Wrap(err, "failed to load ledger block number")
	}

	number, err := stream.Read[plasma.BlockNumber](stream.NewByteReader(value))
	if err != nil {
		return 0, ierrors.Wrap(err, "unable to read ledger block number")
	}

	return number, nil
}

func (m *Manager) ReadLedgerBlockNumber() (plasma.BlockNumber, error) {
	m.ReadLockLedger()
	defer m.ReadUnlockLedger()

	return m.ReadLedgerBlockNumberWithoutLocking()
}

// ApplyBlock applies one committed block to the live set: it removes every
// input of every transaction from the live set and the owner index, inserts
// every output at its computed position, and retains the block record, all in
// one atomic transition. It returns the created and spent outputs.
func (m *Manager) ApplyBlock(number plasma.BlockNumber, transactions []*tx.Transaction) (createdOutputs Outputs, spentOutputs Outputs, err error) {
	m.WriteLockLedger()
	defer m.WriteUnlockLedger()

	return m.ApplyBlockWithoutLocking(number, transactions)
}

func (m *Manager) ApplyBlockWithoutLocking(number plasma.BlockNumber, transactions []*tx.Transaction) (createdOutputs Outputs, spentOutputs Outputs, err error) {
	if number.IsDeposit() {
		return nil, nil, ierrors.Wrapf(ErrWrongBlockNumberRange, "block number %d is reserved for deposits", number)
	}

	if len(transactions) > plasma.MaxTxIndex+1 {
		return nil, nil, ierrors.Wrapf(plasma.ErrPositionOutOfRange, "block %d holds %d transactions, capacity is %d", number, len(transactions), plasma.MaxTxIndex+1)
	}

	txBytes := make([][]byte, len(transactions))
	for i, transaction := range transactions {
		if txBytes[i], err = transaction.Bytes(); err != nil {
			return nil, nil, ierrors.Wrapf(err, "unable to serialize transaction %d of block %d", i, number)
		}
	}

	for txIndex, transaction := range transactions {
		for _, inputPosition := range transaction.Inputs {
			input, err := m.ReadOutputByPositionWithoutLocking(inputPosition)
			if err != nil {
				if ierrors.Is(err, kvstore.ErrKeyNotFound) {
					// Upstream validation is a precondition of this layer; a
					// missing input means the sync loop fed us garbage.
					panic(ierrors.Wrapf(err, "input %s of block %d not in the live set", inputPosition, number))
				}

				return nil, nil, err
			}
			spentOutputs = append(spentOutputs, input)
		}

		if len(transaction.Outputs) > plasma.MaxOutputIndex+1 {
			return nil, nil, ierrors.Wrapf(plasma.ErrPositionOutOfRange, "transaction %d of block %d holds %d outputs, capacity is %d", txIndex, number, len(transaction.Outputs), plasma.MaxOutputIndex+1)
		}

		for outputIndex, txOutput := range transaction.Outputs {
			position, err := plasma.NewPosition(number, uint16(txIndex), uint16(outputIndex))
			if err != nil {
				return nil, nil, ierrors.Wrapf(err, "unable to compute position of output %d of transaction %d", outputIndex, txIndex)
			}
			createdOutputs = append(createdOutputs, NewOutput(position, txOutput.Owner, txOutput.Currency, txOutput.Amount))
		}
	}

	if err := m.applyDiffWithoutLocking(&BlockRecord{Number: number, Transactions: txBytes}, createdOutputs, spentOutputs); err != nil {
		return nil, nil, err
	}

	return createdOutputs, spentOutputs, nil
}

// ApplyDeposit creates one new live output at the deposit position derived
// from the given deposit block number. The deposit is retained as a
// single-transaction block record, so it stays exit-provable like any other
// output. Deposits are pre-validated by the caller.
func (m *Manager) ApplyDeposit(owner plasma.Address, currency plasma.CurrencyID, amount uint64, number plasma.BlockNumber) (*Output, error) {
	m.WriteLockLedger()
	defer m.WriteUnlockLedger()

	return m.ApplyDepositWithoutLocking(owner, currency, amount, number)
}

func (m *Manager) ApplyDepositWithoutLocking(owner plasma.Address, currency plasma.CurrencyID, amount uint64, number plasma.BlockNumber) (*Output, error) {
	if !number.IsDeposit() {
		return nil, ierrors.Wrapf(ErrWrongBlockNumberRange, "block number %d is reserved for committed blocks", number)
	}

	position, err := plasma.NewPosition(number, 0, 0)
	if err != nil {
		return nil, ierrors.Wrap(err, "unable to compute deposit position")
	}

	depositTx := &tx.Transaction{
		Outputs: []tx.Output{{Owner: owner, Currency: currency, Amount: amount}},
	}
	depositTxBytes, err := depositTx.Bytes()
	if err != nil {
		return nil, ierrors.Wrap(err, "unable to serialize deposit transaction")
	}

	output := NewOutput(position, owner, currency, amount)
	record := &BlockRecord{Number: number, Transactions: [][]byte{depositTxBytes}}

	if err := m.applyDiffWithoutLocking(record, Outputs{output}, nil); err != nil {
		return nil, err
	}

	return output, nil
}

// applyDiffWithoutLocking commits one state transition: spent outputs leave
// both tables, created outputs enter both tables, the block record and the
// ledger block number are stored alongside. All of it is a single batched
// mutation.
func (m *Manager) applyDiffWithoutLocking(record *BlockRecord, createdOutputs Outputs, spentOutputs Outputs) error {
	mutations, err := m.store.Batched()
	if err != nil {
		return err
	}

	for _, spent := range spentOutputs {
		if err := deleteOutput(spent, mutations); err != nil {
			mutations.Cancel()

			return err
		}
		if err := deleteOwnerLookup(spent, mutations); err != nil {
			mutations.Cancel()

			return err
		}
	}

	for _, output := range createdOutputs {
		if err := storeOutput(output, mutations); err != nil {
			mutations.Cancel()

			return err
		}
		if err := markAsOwned(output, mutations); err != nil {
			mutations.Cancel()

			return err
		}
	}

	if err := storeBlockRecord(record, mutations); err != nil {
		mutations.Cancel()

		return err
	}

	if err := storeLedgerBlockNumber(record.Number, mutations); err != nil {
		mutations.Cancel()

		return err
	}

	if err := mutations.Commit(); err != nil {
		return err
	}

	for _, spent := range spentOutputs {
		if _, err := m.stateTree.Delete(spent.Position()); err != nil {
			return ierrors.Wrapf(err, "failed to delete spent output from state tree, position: %s", spent.Position())
		}
	}
	for _, output := range createdOutputs {
		if err := m.stateTree.Set(output.Position(), newStateTreeMetadata(output)); err != nil {
			return ierrors.Wrapf(err, "failed to set new output in state tree, position: %s", output.Position())
		}
	}

	if err := m.stateTree.Commit(); err != nil {
		return ierrors.Wrap(err, "failed to commit state tree")
	}

	return nil
}
