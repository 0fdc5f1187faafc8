package tpkg

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/4siteweb/plasma-watcher/pkg/engine/utxoledger"
	"github.com/4siteweb/plasma-watcher/pkg/plasma"
	"github.com/4siteweb/plasma-watcher/pkg/plasma/tx"
)

func RandBytes(length int) []byte {
	b := make([]byte, length)
	_, _ = rand.Read(b)

	return b
}

func randUint64(max uint64) uint64 {
	return binary.BigEndian.Uint64(RandBytes(8)) % max
}

func RandAddress() (a plasma.Address) {
	copy(a[:], RandBytes(plasma.AddressLength))

	return a
}

func RandCurrencyID() (c plasma.CurrencyID) {
	copy(c[:], RandBytes(plasma.CurrencyIDLength))

	return c
}

func RandSignature() []byte {
	return RandBytes(plasma.SignatureLength)
}

// RandChildBlockNumber returns a block number from the committed range.
func RandChildBlockNumber() plasma.BlockNumber {
	return plasma.BlockNumber((randUint64(1_000_000) + 1) * plasma.BlockInterval)
}

// RandDepositBlockNumber returns a block number from the deposit range.
func RandDepositBlockNumber() plasma.BlockNumber {
	return plasma.BlockNumber(randUint64(1_000_000)*plasma.BlockInterval + randUint64(plasma.BlockInterval-1) + 1)
}

func RandPosition() plasma.Position {
	position, err := plasma.NewPosition(RandChildBlockNumber(), uint16(randUint64(plasma.MaxTxIndex+1)), uint16(randUint64(100)))
	if err != nil {
		panic(err)
	}

	return position
}

func RandOutput() *utxoledger.Output {
	return utxoledger.NewOutput(RandPosition(), RandAddress(), plasma.BaseAsset, randUint64(1_000_000)+1)
}

func RandOutputOnAddress(address plasma.Address) *utxoledger.Output {
	return utxoledger.NewOutput(RandPosition(), address, plasma.BaseAsset, randUint64(1_000_000)+1)
}

func RandOutputOnAddressWithAmount(address plasma.Address, amount uint64) *utxoledger.Output {
	return utxoledger.NewOutput(RandPosition(), address, plasma.BaseAsset, amount)
}

// RandTransfer builds a transaction spending the given positions and paying
// the given outputs, with one witness per input.
func RandTransfer(inputs []plasma.Position, outputs ...tx.Output) *tx.Transaction {
	signatures := make([][]byte, len(inputs))
	for i := range signatures {
		signatures[i] = RandSignature()
	}

	return &tx.Transaction{
		Inputs:     inputs,
		Outputs:    outputs,
		Signatures: signatures,
	}
}
