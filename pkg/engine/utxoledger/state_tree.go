package utxoledger

import (
	"bytes"

	"github.com/iotaledger/hive.go/ads"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore/mapdb"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"

	"github.com/4siteweb/plasma-watcher/pkg/plasma"
)

type stateTreeMetadata struct {
	Block plasma.BlockNumber
}

func newStateTreeMetadata(output *Output) *stateTreeMetadata {
	return &stateTreeMetadata{
		Block: output.Position().BlockNumber,
	}
}

func stateTreeMetadataFromBytes(b []byte) (*stateTreeMetadata, int, error) {
	byteReader := stream.NewByteReader(b)

	number, err := stream.Read[plasma.BlockNumber](byteReader)
	if err != nil {
		return nil, 0, err
	}

	return &stateTreeMetadata{Block: number}, byteReader.BytesRead(), nil
}

func (s *stateTreeMetadata) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer(serializer.UInt64ByteSize)

	// There can't be any errors.
	_ = stream.Write(byteBuffer, s.Block)

	return byteBuffer.Bytes()
}

// StateTreeRoot returns the root of the authenticated tree over the live set.
func (m *Manager) StateTreeRoot() plasma.Identifier {
	return m.stateTree.Root()
}

// CheckStateTree rebuilds the state tree from the primary table and compares
// the roots.
func (m *Manager) CheckStateTree() bool {
	comparisonTree := ads.NewMap[plasma.Identifier](mapdb.NewMapDB(),
		plasma.Identifier.Bytes,
		plasma.IdentifierFromBytes,
		plasma.Position.Bytes,
		plasma.PositionFromBytes,
		(*stateTreeMetadata).Bytes,
		stateTreeMetadataFromBytes,
	)

	if err := m.ForEachUnspentOutput(func(output *Output) bool {
		if err := comparisonTree.Set(output.Position(), newStateTreeMetadata(output)); err != nil {
			panic(ierrors.Wrapf(err, "failed to set output in comparison tree, position: %s", output.Position()))
		}

		return true
	}); err != nil {
		return false
	}

	comparisonRoot := comparisonTree.Root()
	storedRoot := m.StateTreeRoot()

	return bytes.Equal(comparisonRoot[:], storedRoot[:])
}
