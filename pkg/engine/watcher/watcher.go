// Package watcher ties the ledger engine together behind the boundary the
// synchronization loop and the query layer talk to: block and deposit events
// go in, ownership queries and exit proofs come out.
package watcher

import (
	"github.com/iotaledger/hive.go/ds"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"

	"github.com/4siteweb/plasma-watcher/pkg/engine/exit"
	"github.com/4siteweb/plasma-watcher/pkg/engine/utxoledger"
	"github.com/4siteweb/plasma-watcher/pkg/plasma"
	"github.com/4siteweb/plasma-watcher/pkg/plasma/tx"
)

// Watcher owns the unspent-output ledger and the exit-proof composer. The
// synchronization loop is the single writer; queries and proof composition may
// run concurrently against the same state.
type Watcher struct {
	Events *Events

	ledger   *utxoledger.Manager
	composer *exit.Composer

	log.Logger
}

func New(store kvstore.KVStore, opts ...options.Option[Watcher]) *Watcher {
	ledger := utxoledger.New(store)

	return options.Apply(&Watcher{
		Events:   NewEvents(),
		ledger:   ledger,
		composer: exit.NewComposer(ledger),
	}, opts, func(w *Watcher) {
		if w.Logger == nil {
			w.Logger = log.NewLogger()
		}
	})
}

// Ledger exposes the underlying unspent-output set.
func (w *Watcher) Ledger() *utxoledger.Manager {
	return w.ledger
}

// ApplyBlock applies one committed block, in non-decreasing block number order
// with respect to previous calls.
func (w *Watcher) ApplyBlock(number plasma.BlockNumber, transactions []*tx.Transaction) error {
	created, spent, err := w.ledger.ApplyBlock(number, transactions)
	if err != nil {
		return err
	}

	owners := ds.NewSet[plasma.Address]()
	for _, output := range created {
		owners.Add(output.Owner())
	}
	for _, output := range spent {
		owners.Add(output.Owner())
	}

	w.LogDebugf("applied block %d: %d transactions, %d created, %d spent", number, len(transactions), len(created), len(spent))

	w.Events.BlockApplied.Trigger(&BlockAppliedEvent{
		BlockNumber:      number,
		TransactionCount: len(transactions),
		Owners:           owners,
	})

	return nil
}

// ApplyDeposit applies one observed deposit event and returns the position of
// the created output.
func (w *Watcher) ApplyDeposit(owner plasma.Address, currency plasma.CurrencyID, amount uint64, number plasma.BlockNumber) (plasma.Position, error) {
	output, err := w.ledger.ApplyDeposit(owner, currency, amount, number)
	if err != nil {
		return plasma.Position{}, err
	}

	w.LogDebugf("applied deposit %s: owner %s, amount %d", output.Position(), owner, amount)

	w.Events.DepositApplied.Trigger(&DepositAppliedEvent{
		Position: output.Position(),
		Owner:    owner,
		Currency: currency,
		Amount:   amount,
	})

	return output.Position(), nil
}

// OwnedUTXOs returns every live output owned by the given owner.
func (w *Watcher) OwnedUTXOs(owner plasma.Address) (utxoledger.Outputs, error) {
	return w.ledger.UnspentOutputsByOwner(owner)
}

// ComposeExitProof composes the exit-proof bundle for a packed position key.
func (w *Watcher) ComposeExitProof(key uint64) (*exit.Proof, error) {
	return w.composer.ComposeFromKey(key)
}
