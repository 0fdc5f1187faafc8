package plasma_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/4siteweb/plasma-watcher/pkg/plasma"
)

func TestPositionEncodeDecodeRoundTrip(t *testing.T) {
	positions := []plasma.Position{
		{BlockNumber: 0, TxIndex: 0, OutputIndex: 0},
		{BlockNumber: 1000, TxIndex: 0, OutputIndex: 0},
		{BlockNumber: 1000, TxIndex: 0, OutputIndex: 3},
		{BlockNumber: 1001, TxIndex: 0, OutputIndex: 0},
		{BlockNumber: 2000, TxIndex: 55, OutputIndex: 1},
		{BlockNumber: 123_000, TxIndex: plasma.MaxTxIndex, OutputIndex: plasma.MaxOutputIndex},
		{BlockNumber: plasma.MaxBlockNumber, TxIndex: plasma.MaxTxIndex, OutputIndex: plasma.MaxOutputIndex},
	}

	for _, position := range positions {
		key, err := position.Encode()
		require.NoError(t, err)

		decoded, err := plasma.DecodePosition(key)
		require.NoError(t, err)
		require.Equal(t, position, decoded)
	}
}

func TestPositionEncodeRejectsOutOfRange(t *testing.T) {
	_, err := plasma.Position{BlockNumber: plasma.MaxBlockNumber + 1}.Encode()
	require.ErrorIs(t, err, plasma.ErrPositionOutOfRange)

	_, err = plasma.Position{BlockNumber: 1000, OutputIndex: plasma.MaxOutputIndex + 1}.Encode()
	require.ErrorIs(t, err, plasma.ErrPositionOutOfRange)

	_, err = plasma.NewPosition(1000, 0, plasma.MaxOutputIndex+1)
	require.ErrorIs(t, err, plasma.ErrPositionOutOfRange)
}

func TestPositionOrderingMatchesKeyOrdering(t *testing.T) {
	ordered := []plasma.Position{
		{BlockNumber: 999, TxIndex: plasma.MaxTxIndex, OutputIndex: plasma.MaxOutputIndex},
		{BlockNumber: 1000, TxIndex: 0, OutputIndex: 0},
		{BlockNumber: 1000, TxIndex: 0, OutputIndex: 1},
		{BlockNumber: 1000, TxIndex: 1, OutputIndex: 0},
		{BlockNumber: 1001, TxIndex: 0, OutputIndex: 0},
	}

	for i := 1; i < len(ordered); i++ {
		require.Equal(t, -1, ordered[i-1].Compare(ordered[i]))
		require.Equal(t, 1, ordered[i].Compare(ordered[i-1]))

		prevKey, err := ordered[i-1].Encode()
		require.NoError(t, err)
		key, err := ordered[i].Encode()
		require.NoError(t, err)
		require.Less(t, prevKey, key)
	}

	require.Equal(t, 0, ordered[1].Compare(ordered[1]))
}

func TestPositionBytesRoundTrip(t *testing.T) {
	position := plasma.Position{BlockNumber: 5000, TxIndex: 7, OutputIndex: 2}

	b, err := position.Bytes()
	require.NoError(t, err)
	require.Len(t, b, plasma.PositionLength)

	decoded, consumed, err := plasma.PositionFromBytes(b)
	require.NoError(t, err)
	require.Equal(t, plasma.PositionLength, consumed)
	require.Equal(t, position, decoded)

	_, _, err = plasma.PositionFromBytes(b[:4])
	require.Error(t, err)
}

func TestBlockNumberRanges(t *testing.T) {
	require.False(t, plasma.BlockNumber(1000).IsDeposit())
	require.False(t, plasma.BlockNumber(2000).IsDeposit())
	require.True(t, plasma.BlockNumber(1001).IsDeposit())
	require.True(t, plasma.BlockNumber(1).IsDeposit())
}
