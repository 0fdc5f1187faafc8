package utxoledger

import (
	"github.com/iotaledger/hive.go/kvstore"

	"github.com/4siteweb/plasma-watcher/pkg/plasma"
)

// OutputConsumer is a function that consumes an output.
// Returning false from this function indicates to abort the iteration.
type OutputConsumer func(output *Output) bool

// ForEachUnspentOutput calls the consumer for every output in the live set.
// The primary table contains live outputs only, spending deletes them.
func (m *Manager) ForEachUnspentOutput(consumer OutputConsumer) error {
	m.ReadLockLedger()
	defer m.ReadUnlockLedger()

	var innerErr error
	if err := m.store.Iterate([]byte{StoreKeyPrefixOutput}, func(key kvstore.Key, value kvstore.Value) bool {
		output := &Output{}
		if err := output.kvStorableLoad(m, key, value); err != nil {
			innerErr = err

			return false
		}

		return consumer(output)
	}); err != nil {
		return err
	}

	return innerErr
}

// UnspentOutputs returns the whole live set.
func (m *Manager) UnspentOutputs() (Outputs, error) {
	var outputs Outputs
	if err := m.ForEachUnspentOutput(func(output *Output) bool {
		outputs = append(outputs, output)

		return true
	}); err != nil {
		return nil, err
	}

	return outputs, nil
}

// ComputeLedgerBalance sums the live set per currency and returns the number
// of live outputs.
func (m *Manager) ComputeLedgerBalance() (balanceByCurrency map[plasma.CurrencyID]uint64, count int, err error) {
	balanceByCurrency = make(map[plasma.CurrencyID]uint64)

	if err := m.ForEachUnspentOutput(func(output *Output) bool {
		count++
		balanceByCurrency[output.Currency()] += output.Amount()

		return true
	}); err != nil {
		return nil, 0, err
	}

	return balanceByCurrency, count, nil
}
