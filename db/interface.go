package db

import "errors"

var (
	ErrKeyNotFound = errors.New("Key not found")
)

// Every call is its own transaction.
type KVDB interface {
	Read(key []byte) ([]byte, error)
	Write(key, value []byte) error
	Delete(key []byte) error
	Close() error

	DropPrefix([]byte) error
	BatchRead(prefix []byte, r func(k, v []byte) error) error
}
