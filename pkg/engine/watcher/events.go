package watcher

import (
	"github.com/iotaledger/hive.go/ds"
	"github.com/iotaledger/hive.go/runtime/event"

	"github.com/4siteweb/plasma-watcher/pkg/plasma"
)

// BlockAppliedEvent is triggered after a committed block has been applied to
// the ledger.
type BlockAppliedEvent struct {
	BlockNumber      plasma.BlockNumber
	TransactionCount int

	// Owners whose holdings changed with this block, either by receiving an
	// output or by having one spent.
	Owners ds.Set[plasma.Address]
}

// DepositAppliedEvent is triggered after a deposit has been applied to the ledger.
type DepositAppliedEvent struct {
	Position plasma.Position
	Owner    plasma.Address
	Currency plasma.CurrencyID
	Amount   uint64
}

type Events struct {
	BlockApplied   *event.Event1[*BlockAppliedEvent]
	DepositApplied *event.Event1[*DepositAppliedEvent]

	event.Group[Events, *Events]
}

var NewEvents = event.CreateGroupConstructor(func() (newEvents *Events) {
	return &Events{
		BlockApplied:   event.New1[*BlockAppliedEvent](),
		DepositApplied: event.New1[*DepositAppliedEvent](),
	}
})
