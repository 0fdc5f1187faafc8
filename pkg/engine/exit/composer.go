// Package exit composes the proof bundles needed to exit an output back to
// the root ledger: the serialized transaction, its inclusion proof against the
// block commitment and the witnesses carried by the transaction.
package exit

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"

	"github.com/4siteweb/plasma-watcher/pkg/engine/utxoledger"
	"github.com/4siteweb/plasma-watcher/pkg/merkle"
	"github.com/4siteweb/plasma-watcher/pkg/plasma"
	"github.com/4siteweb/plasma-watcher/pkg/plasma/tx"
)

var (
	// ErrNoBlockForNumber is returned if no block record is retained for the
	// requested block number.
	ErrNoBlockForNumber = ierrors.New("no block record for block number")

	// ErrNoTransactionAtIndex is returned if the requested transaction slot is
	// beyond the block's real transaction count. The merkle tree has padding
	// at that slot, but it is not a valid exit target.
	ErrNoTransactionAtIndex = ierrors.New("no transaction at index in block")
)

// Proof is the bundle submitted to the root ledger to exit an output.
type Proof struct {
	// Position of the output being exited. The output index does not affect
	// the inclusion proof, it is echoed back for the caller.
	Position plasma.Position

	// TxBytes is the serialized transaction creating the output, exactly as
	// retained in the block record.
	TxBytes []byte

	// ProofBytes is the merkle inclusion proof of TxBytes in the block
	// commitment, merkle.ProofSize bytes.
	ProofBytes []byte

	// Signatures are the witnesses carried by the transaction.
	Signatures [][]byte
}

// Composer composes exit proofs from retained block records. It is a pure
// read path over the ledger.
type Composer struct {
	ledger *utxoledger.Manager
}

func NewComposer(ledger *utxoledger.Manager) *Composer {
	return &Composer{
		ledger: ledger,
	}
}

// Compose assembles the exit proof for the given position.
func (c *Composer) Compose(position plasma.Position) (*Proof, error) {
	record, err := c.ledger.BlockRecord(position.BlockNumber)
	if err != nil {
		if ierrors.Is(err, kvstore.ErrKeyNotFound) {
			return nil, ierrors.Wrapf(ErrNoBlockForNumber, "block %d", position.BlockNumber)
		}

		return nil, err
	}

	if int(position.TxIndex) >= len(record.Transactions) {
		return nil, ierrors.Wrapf(ErrNoTransactionAtIndex, "tx index %d in block %d with %d transactions", position.TxIndex, position.BlockNumber, len(record.Transactions))
	}

	tree, err := merkle.NewTree(record.Transactions)
	if err != nil {
		return nil, ierrors.Wrapf(err, "unable to rebuild merkle tree of block %d", position.BlockNumber)
	}

	proofBytes, err := tree.Proof(uint32(position.TxIndex))
	if err != nil {
		return nil, ierrors.Wrapf(err, "unable to prove tx index %d of block %d", position.TxIndex, position.BlockNumber)
	}

	txBytes := record.Transactions[position.TxIndex]

	// Witnesses are carried inside the stored transaction, not recomputed.
	transaction, err := tx.FromBytes(txBytes)
	if err != nil {
		return nil, ierrors.Wrapf(err, "unable to parse retained transaction %d of block %d", position.TxIndex, position.BlockNumber)
	}

	return &Proof{
		Position:   position,
		TxBytes:    txBytes,
		ProofBytes: proofBytes,
		Signatures: transaction.Signatures,
	}, nil
}

// ComposeFromKey decodes a packed position key and composes its exit proof.
func (c *Composer) ComposeFromKey(key uint64) (*Proof, error) {
	position, err := plasma.DecodePosition(key)
	if err != nil {
		return nil, err
	}

	return c.Compose(position)
}
