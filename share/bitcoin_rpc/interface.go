package bitcoin_rpc

import "github.com/OLProtocol/go-bitcoind"

type BitcoinRPC interface {
	SendTx(signedTxHex string) (string, error)
	GetRawTx(txid string) (string, error)

	GetBlockCount() (uint64, error)
	GetBlockHash(height uint64) (string, error)

	GetMemPoolEntry(txid string) (*bitcoind.MemPoolEntry, error)
}

// WalletRPC is the part of the node's wallet interface a sendmany run needs.
type WalletRPC interface {
	ListUnspent() ([]Unspent, error)
	ListLockUnspent() ([]Outpoint, error)
	GetRawChangeAddress(addressType string) (string, error)
	SignRawTransaction(txHex string) (string, error)
}

var ShareBitconRpc BitcoinRPC
