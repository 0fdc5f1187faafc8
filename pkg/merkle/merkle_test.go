package merkle_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/4siteweb/plasma-watcher/pkg/merkle"
)

func randLeaves(count int) [][]byte {
	leaves := make([][]byte, count)
	for i := range leaves {
		leaves[i] = make([]byte, 64)
		_, _ = rand.Read(leaves[i])
	}

	return leaves
}

func TestEmptyTree(t *testing.T) {
	tree, err := merkle.NewTree(nil)
	require.NoError(t, err)
	require.Len(t, tree.Root(), merkle.HashSize)

	proof, err := tree.Proof(0)
	require.NoError(t, err)
	require.Len(t, proof, merkle.ProofSize)
	require.True(t, merkle.Verify(merkle.EmptyLeaf(), 0, tree.Root(), proof))
}

func TestProofSizeIsFixed(t *testing.T) {
	tree, err := merkle.NewTree(randLeaves(3))
	require.NoError(t, err)

	proof, err := tree.Proof(1)
	require.NoError(t, err)
	require.Len(t, proof, 512)
}

func TestProofVerifiesForEveryLeaf(t *testing.T) {
	leaves := randLeaves(7)
	tree, err := merkle.NewTree(leaves)
	require.NoError(t, err)

	for i, leaf := range leaves {
		proof, err := tree.Proof(uint32(i))
		require.NoError(t, err)
		require.True(t, merkle.Verify(leaf, uint32(i), tree.Root(), proof), "leaf %d", i)
	}

	// Padding slots beyond the real leaves verify as empty leaves.
	proof, err := tree.Proof(uint32(len(leaves)))
	require.NoError(t, err)
	require.True(t, merkle.Verify(merkle.EmptyLeaf(), uint32(len(leaves)), tree.Root(), proof))
	require.False(t, merkle.Verify(leaves[0], uint32(len(leaves)), tree.Root(), proof))
}

func TestProofFailsForWrongLeafOrIndex(t *testing.T) {
	leaves := randLeaves(4)
	tree, err := merkle.NewTree(leaves)
	require.NoError(t, err)

	proof, err := tree.Proof(2)
	require.NoError(t, err)

	require.False(t, merkle.Verify(leaves[1], 2, tree.Root(), proof))
	require.False(t, merkle.Verify(leaves[2], 3, tree.Root(), proof))
	require.False(t, merkle.Verify(leaves[2], 2, tree.Root(), proof[:merkle.ProofSize-1]))
}

func TestProofIndexOutOfRange(t *testing.T) {
	tree, err := merkle.NewTree(randLeaves(1))
	require.NoError(t, err)

	_, err = tree.Proof(merkle.MaxLeaves)
	require.ErrorIs(t, err, merkle.ErrLeafIndexOutOfRange)
}

func TestRootChangesWithLeafOrder(t *testing.T) {
	leaves := randLeaves(2)
	tree, err := merkle.NewTree(leaves)
	require.NoError(t, err)

	swapped, err := merkle.NewTree([][]byte{leaves[1], leaves[0]})
	require.NoError(t, err)

	require.NotEqual(t, tree.Root(), swapped.Root())
}

func TestTooManyLeaves(t *testing.T) {
	leaves := make([][]byte, merkle.MaxLeaves+1)
	for i := range leaves {
		leaves[i] = merkle.EmptyLeaf()
	}

	_, err := merkle.NewTree(leaves)
	require.ErrorIs(t, err, merkle.ErrTooManyLeaves)
}
