package utxoledger

const (
	// StoreKeyPrefixLedgerBlockNumber defines the prefix for the highest
	// applied block number.
	StoreKeyPrefixLedgerBlockNumber byte = 0

	// StoreKeyPrefixOutput defines the prefix for live (unspent) outputs.
	StoreKeyPrefixOutput byte = 1

	// StoreKeyPrefixOwnerIndex defines the prefix for the owner to positions
	// secondary index.
	StoreKeyPrefixOwnerIndex byte = 2

	// StoreKeyPrefixBlockRecord defines the prefix for retained block records.
	StoreKeyPrefixBlockRecord byte = 3

	// StoreKeyPrefixStateTree defines the realm of the authenticated state tree.
	StoreKeyPrefixStateTree byte = 4
)

/*
   Ledger Database

   Ledger block number:
   ====================
   Key:
       StoreKeyPrefixLedgerBlockNumber
                1 byte

   Value:
       plasma.BlockNumber
            8 bytes

   Output:
   =======
   Key:
       StoreKeyPrefixOutput + packed position (big endian)
             1 byte         +        8 bytes

   Value:
       owner     +  currency  +  amount
       20 bytes  +  20 bytes  +  8 bytes

   Owner index:
   ============
   Key:
       StoreKeyPrefixOwnerIndex + owner     + packed position (big endian)
              1 byte            + 20 bytes  +        8 bytes

   Value:
       Empty

   Block record:
   =============
   Key:
       StoreKeyPrefixBlockRecord + plasma.BlockNumber
               1 byte            +      8 bytes

   Value:
       TxCount  +  TxCount * (TxLength + serialized transaction)
       4 bytes  +             (4 bytes +       X bytes)
*/
