package plasma

import (
	"encoding/binary"
	"fmt"

	"github.com/iotaledger/hive.go/ierrors"
)

// The packed position key mirrors the encoding the root ledger contracts use
// to address a single transaction output:
//
//	key = blockNumber*BlockOffset + txIndex*TxOffset + outputIndex
//
// The offsets are part of the root ledger contract and must not be changed.
const (
	// TxOffset is the distance between two consecutive transaction slots
	// within one block.
	TxOffset = 10_000

	// BlockOffset is the distance between two consecutive block slots.
	BlockOffset = 1_000_000_000

	// MaxOutputIndex is the highest addressable output index within a transaction.
	MaxOutputIndex = TxOffset - 1

	// MaxTxIndex is the highest addressable transaction index within a block,
	// bounded by the capacity of the block commitment's merkle tree.
	MaxTxIndex = 1<<16 - 1

	// MaxBlockNumber is the highest block number whose packed key still fits
	// into an uint64.
	MaxBlockNumber = 1<<34 - 1

	// PositionLength is the byte length of a serialized position key.
	PositionLength = 8
)

// ErrPositionOutOfRange is returned if a position component exceeds the range
// addressable by the root ledger's commitment format.
var ErrPositionOutOfRange = ierrors.New("position component out of range")

// Position addresses a single transaction output: the block that contains the
// transaction, the index of the transaction within the block and the index of
// the output within the transaction. Positions are write-once; the total order
// over positions is (BlockNumber, TxIndex, OutputIndex).
type Position struct {
	BlockNumber BlockNumber
	TxIndex     uint16
	OutputIndex uint16
}

// NewPosition creates a Position and validates its components against the
// addressable ranges of the commitment format.
func NewPosition(blockNumber BlockNumber, txIndex uint16, outputIndex uint16) (Position, error) {
	position := Position{
		BlockNumber: blockNumber,
		TxIndex:     txIndex,
		OutputIndex: outputIndex,
	}
	if err := position.validate(); err != nil {
		return Position{}, err
	}

	return position, nil
}

func (p Position) validate() error {
	if p.BlockNumber > MaxBlockNumber {
		return ierrors.Wrapf(ErrPositionOutOfRange, "block number %d exceeds %d", p.BlockNumber, uint64(MaxBlockNumber))
	}
	if p.OutputIndex > MaxOutputIndex {
		return ierrors.Wrapf(ErrPositionOutOfRange, "output index %d exceeds %d", p.OutputIndex, MaxOutputIndex)
	}

	return nil
}

// Encode packs the position into a single ordered integer key. The packing is
// a strictly monotonic bijection: comparing two keys is equivalent to
// comparing the two positions component-wise.
func (p Position) Encode() (uint64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}

	return uint64(p.BlockNumber)*BlockOffset + uint64(p.TxIndex)*TxOffset + uint64(p.OutputIndex), nil
}

// DecodePosition is the exact inverse of Encode.
func DecodePosition(key uint64) (Position, error) {
	blockNumber := key / BlockOffset
	if blockNumber > MaxBlockNumber {
		return Position{}, ierrors.Wrapf(ErrPositionOutOfRange, "block number %d exceeds %d", blockNumber, uint64(MaxBlockNumber))
	}

	inBlock := key % BlockOffset
	txIndex := inBlock / TxOffset
	if txIndex > MaxTxIndex {
		return Position{}, ierrors.Wrapf(ErrPositionOutOfRange, "tx index %d exceeds %d", txIndex, MaxTxIndex)
	}

	return Position{
		BlockNumber: BlockNumber(blockNumber),
		TxIndex:     uint16(txIndex),
		OutputIndex: uint16(inBlock % TxOffset),
	}, nil
}

// Bytes returns the big-endian serialization of the packed key, so that the
// lexical order of serialized positions equals their numeric order.
func (p Position) Bytes() ([]byte, error) {
	key, err := p.Encode()
	if err != nil {
		return nil, err
	}

	b := make([]byte, PositionLength)
	binary.BigEndian.PutUint64(b, key)

	return b, nil
}

func PositionFromBytes(b []byte) (Position, int, error) {
	if len(b) < PositionLength {
		return Position{}, 0, ierrors.Errorf("invalid position length: expected %d, got %d", PositionLength, len(b))
	}

	position, err := DecodePosition(binary.BigEndian.Uint64(b[:PositionLength]))
	if err != nil {
		return Position{}, 0, err
	}

	return position, PositionLength, nil
}

// Compare returns an integer comparing two positions in their total order.
func (p Position) Compare(other Position) int {
	switch {
	case p.BlockNumber != other.BlockNumber:
		if p.BlockNumber < other.BlockNumber {
			return -1
		}

		return 1
	case p.TxIndex != other.TxIndex:
		if p.TxIndex < other.TxIndex {
			return -1
		}

		return 1
	case p.OutputIndex != other.OutputIndex:
		if p.OutputIndex < other.OutputIndex {
			return -1
		}

		return 1
	default:
		return 0
	}
}

func (p Position) String() string {
	return fmt.Sprintf("Position(%d, %d, %d)", p.BlockNumber, p.TxIndex, p.OutputIndex)
}
