// Package merkle builds the fixed-depth binary merkle trees that the child
// chain commits to the root ledger, and produces the inclusion proofs its
// on-chain verifier expects: TreeDepth sibling digests, leaf to root,
// concatenated into one byte string. The byte layout is part of the root
// ledger contract and must not be changed.
package merkle

import (
	"bytes"

	"github.com/iotaledger/hive.go/ierrors"
	"golang.org/x/crypto/sha3"
)

const (
	// TreeDepth is the fixed depth every commitment tree is padded to.
	TreeDepth = 16

	// HashSize is the size of a Keccak-256 digest.
	HashSize = 32

	// ProofSize is the byte length of every inclusion proof.
	ProofSize = TreeDepth * HashSize

	// MaxLeaves is the leaf capacity of a tree.
	MaxLeaves = 1 << TreeDepth
)

var (
	// ErrLeafIndexOutOfRange is returned if a proof is requested for a leaf
	// index beyond the tree capacity.
	ErrLeafIndexOutOfRange = ierrors.New("leaf index out of range")

	// ErrTooManyLeaves is returned if more leaves are supplied than the fixed
	// tree depth can hold.
	ErrTooManyLeaves = ierrors.New("leaf count exceeds tree capacity")

	// defaultNodes[level] is the digest of a fully empty subtree of the given
	// height, shared by every tree.
	defaultNodes = computeDefaultNodes()
)

// EmptyLeaf returns the publicly known padding value for unoccupied leaf
// slots. It is hashed identically to real leaves. The value is fixed by the
// root ledger contract, so callers get a fresh copy.
func EmptyLeaf() []byte {
	return []byte{}
}

func keccak256(data ...[]byte) (digest [HashSize]byte) {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	copy(digest[:], h.Sum(nil))

	return digest
}

func computeDefaultNodes() [][HashSize]byte {
	nodes := make([][HashSize]byte, TreeDepth+1)
	nodes[0] = keccak256(EmptyLeaf())
	for level := 1; level <= TreeDepth; level++ {
		nodes[level] = keccak256(nodes[level-1][:], nodes[level-1][:])
	}

	return nodes
}

// Tree is a merkle tree over an ordered leaf sequence, padded with EmptyLeaf
// to the full fixed depth. Building and proving are pure functions of the leaf
// sequence; a Tree holds no shared state and is safe for concurrent reads.
type Tree struct {
	// levels[level] holds the occupied nodes of that level; everything beyond
	// is an empty subtree covered by defaultNodes.
	levels [][][HashSize]byte
}

// NewTree hashes the given leaves and builds the tree up to the fixed depth.
// The zero-leaf tree is valid and consists of padding only.
func NewTree(leaves [][]byte) (*Tree, error) {
	if len(leaves) > MaxLeaves {
		return nil, ierrors.Wrapf(ErrTooManyLeaves, "%d leaves exceed capacity %d", len(leaves), MaxLeaves)
	}

	level := make([][HashSize]byte, len(leaves))
	for i, leaf := range leaves {
		level[i] = keccak256(leaf)
	}

	t := &Tree{levels: make([][][HashSize]byte, 0, TreeDepth+1)}
	t.levels = append(t.levels, level)

	for height := 0; height < TreeDepth; height++ {
		current := t.levels[height]
		parents := make([][HashSize]byte, (len(current)+1)/2)
		for i := range parents {
			left := t.node(height, 2*i)
			right := t.node(height, 2*i+1)
			parents[i] = keccak256(left[:], right[:])
		}
		t.levels = append(t.levels, parents)
	}

	return t, nil
}

func (t *Tree) node(level int, index int) [HashSize]byte {
	if index < len(t.levels[level]) {
		return t.levels[level][index]
	}

	return defaultNodes[level]
}

// Root returns the tree root committed to the root ledger.
func (t *Tree) Root() []byte {
	root := t.node(TreeDepth, 0)

	return root[:]
}

// Proof returns the inclusion proof for the given leaf slot: the TreeDepth
// sibling digests from leaf to root concatenated into a ProofSize byte string.
// Padding slots are provable like occupied ones; semantic validity of the slot
// is the caller's concern.
func (t *Tree) Proof(leafIndex uint32) ([]byte, error) {
	if leafIndex >= MaxLeaves {
		return nil, ierrors.Wrapf(ErrLeafIndexOutOfRange, "leaf index %d exceeds capacity %d", leafIndex, MaxLeaves)
	}

	proof := make([]byte, 0, ProofSize)
	index := int(leafIndex)
	for height := 0; height < TreeDepth; height++ {
		sibling := t.node(height, index^1)
		proof = append(proof, sibling[:]...)
		index >>= 1
	}

	return proof, nil
}

// Verify recomputes the root from a leaf and its inclusion proof and compares
// it against the expected root.
func Verify(leaf []byte, leafIndex uint32, root []byte, proof []byte) bool {
	if len(proof) != ProofSize || leafIndex >= MaxLeaves {
		return false
	}

	digest := keccak256(leaf)
	index := leafIndex
	for height := 0; height < TreeDepth; height++ {
		sibling := proof[height*HashSize : (height+1)*HashSize]
		if index&1 == 1 {
			digest = keccak256(sibling, digest[:])
		} else {
			digest = keccak256(digest[:], sibling)
		}
		index >>= 1
	}

	return bytes.Equal(digest[:], root)
}
