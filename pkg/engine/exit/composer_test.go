package exit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/kvstore/mapdb"

	"github.com/4siteweb/plasma-watcher/pkg/engine/exit"
	"github.com/4siteweb/plasma-watcher/pkg/engine/utxoledger"
	"github.com/4siteweb/plasma-watcher/pkg/engine/utxoledger/tpkg"
	"github.com/4siteweb/plasma-watcher/pkg/merkle"
	"github.com/4siteweb/plasma-watcher/pkg/plasma"
	"github.com/4siteweb/plasma-watcher/pkg/plasma/tx"
)

func TestComposeProofForCommittedBlock(t *testing.T) {
	manager := utxoledger.New(mapdb.NewMapDB())
	composer := exit.NewComposer(manager)

	alice := tpkg.RandAddress()
	bob := tpkg.RandAddress()

	transactions := []*tx.Transaction{
		tpkg.RandTransfer(nil, tx.Output{Owner: alice, Currency: plasma.BaseAsset, Amount: 4}),
		tpkg.RandTransfer(nil,
			tx.Output{Owner: bob, Currency: plasma.BaseAsset, Amount: 6},
			tx.Output{Owner: alice, Currency: plasma.BaseAsset, Amount: 1},
		),
		{},
	}

	created, _, err := manager.ApplyBlock(1000, transactions)
	require.NoError(t, err)
	require.Len(t, created, 3)

	// Exit bob's output, second transaction in the block.
	position, err := plasma.NewPosition(1000, 1, 0)
	require.NoError(t, err)

	proof, err := composer.Compose(position)
	require.NoError(t, err)
	require.Equal(t, position, proof.Position)
	require.Len(t, proof.ProofBytes, 512)

	expectedTxBytes, err := transactions[1].Bytes()
	require.NoError(t, err)
	require.Equal(t, expectedTxBytes, proof.TxBytes)
	require.Equal(t, transactions[1].Signatures, proof.Signatures)

	// The proof must verify against the rebuilt tree root.
	record, err := manager.BlockRecord(1000)
	require.NoError(t, err)
	tree, err := merkle.NewTree(record.Transactions)
	require.NoError(t, err)
	require.True(t, merkle.Verify(proof.TxBytes, uint32(position.TxIndex), tree.Root(), proof.ProofBytes))
}

func TestComposeProofEchoesOutputIndex(t *testing.T) {
	manager := utxoledger.New(mapdb.NewMapDB())
	composer := exit.NewComposer(manager)

	_, _, err := manager.ApplyBlock(3000, []*tx.Transaction{
		tpkg.RandTransfer(nil,
			tx.Output{Owner: tpkg.RandAddress(), Currency: plasma.BaseAsset, Amount: 1},
			tx.Output{Owner: tpkg.RandAddress(), Currency: plasma.BaseAsset, Amount: 2},
		),
	})
	require.NoError(t, err)

	first, err := composer.Compose(plasma.Position{BlockNumber: 3000, TxIndex: 0, OutputIndex: 0})
	require.NoError(t, err)
	second, err := composer.Compose(plasma.Position{BlockNumber: 3000, TxIndex: 0, OutputIndex: 1})
	require.NoError(t, err)

	// Proofs are per transaction; only the echoed position differs.
	require.Equal(t, first.TxBytes, second.TxBytes)
	require.Equal(t, first.ProofBytes, second.ProofBytes)
	require.Equal(t, uint16(0), first.Position.OutputIndex)
	require.Equal(t, uint16(1), second.Position.OutputIndex)
}

func TestComposeProofForDeposit(t *testing.T) {
	manager := utxoledger.New(mapdb.NewMapDB())
	composer := exit.NewComposer(manager)

	deposit, err := manager.ApplyDeposit(tpkg.RandAddress(), plasma.BaseAsset, 5, 42)
	require.NoError(t, err)

	proof, err := composer.Compose(deposit.Position())
	require.NoError(t, err)
	require.Len(t, proof.ProofBytes, merkle.ProofSize)
	require.Empty(t, proof.Signatures)

	record, err := manager.BlockRecord(42)
	require.NoError(t, err)
	tree, err := merkle.NewTree(record.Transactions)
	require.NoError(t, err)
	require.True(t, merkle.Verify(proof.TxBytes, 0, tree.Root(), proof.ProofBytes))
}

func TestComposeProofNoBlockForNumber(t *testing.T) {
	manager := utxoledger.New(mapdb.NewMapDB())
	composer := exit.NewComposer(manager)

	_, err := composer.Compose(plasma.Position{BlockNumber: 9000})
	require.ErrorIs(t, err, exit.ErrNoBlockForNumber)
}

func TestComposeProofNoTransactionAtIndex(t *testing.T) {
	manager := utxoledger.New(mapdb.NewMapDB())
	composer := exit.NewComposer(manager)

	_, _, err := manager.ApplyBlock(1000, []*tx.Transaction{
		tpkg.RandTransfer(nil, tx.Output{Owner: tpkg.RandAddress(), Currency: plasma.BaseAsset, Amount: 1}),
	})
	require.NoError(t, err)

	// The tree has padding at index 1, but it is not a valid exit target.
	_, err = composer.Compose(plasma.Position{BlockNumber: 1000, TxIndex: 1})
	require.ErrorIs(t, err, exit.ErrNoTransactionAtIndex)
}

func TestComposeFromKey(t *testing.T) {
	manager := utxoledger.New(mapdb.NewMapDB())
	composer := exit.NewComposer(manager)

	deposit, err := manager.ApplyDeposit(tpkg.RandAddress(), plasma.BaseAsset, 5, 1)
	require.NoError(t, err)

	key, err := deposit.Position().Encode()
	require.NoError(t, err)

	proof, err := composer.ComposeFromKey(key)
	require.NoError(t, err)
	require.Equal(t, deposit.Position(), proof.Position)

	_, err = composer.ComposeFromKey(uint64(plasma.MaxBlockNumber+1) * plasma.BlockOffset)
	require.ErrorIs(t, err, plasma.ErrPositionOutOfRange)
}
