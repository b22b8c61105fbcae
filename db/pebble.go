package db

import (
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/sat20-labs/sendmany/common"
)

type pebbleDB struct {
	path string
	db   *pebble.DB
}

// The cache only ever sees point lookups of whole transactions.
func cacheOptions() *pebble.Options {
	return &pebble.Options{
		Cache:        pebble.NewCache(64 << 20),
		MaxOpenFiles: 1000,
		MemTableSize: 16 << 20,

		Levels: func() []pebble.LevelOptions {
			lvls := make([]pebble.LevelOptions, 7)
			for i := range lvls {
				lvls[i].BlockSize = 16 << 10
				lvls[i].FilterPolicy = bloom.FilterPolicy(10)
				lvls[i].FilterType = pebble.TableFilter
			}
			return lvls
		}(),
	}
}

func NewPebbleDB(path string) (KVDB, error) {
	if path == "" {
		path = "./data/cache"
	}
	db, err := pebble.Open(path, cacheOptions())
	if err != nil {
		common.Log.Errorf("open pebble db %s failed, %v", path, err)
		return nil, err
	}
	return &pebbleDB{path: path, db: db}, nil
}

func (p *pebbleDB) Read(key []byte) ([]byte, error) {
	val, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()
	return append([]byte{}, val...), nil
}

func (p *pebbleDB) Write(key, value []byte) error {
	return p.db.Set(key, value, pebble.Sync)
}

func (p *pebbleDB) Delete(key []byte) error {
	return p.db.Delete(key, pebble.Sync)
}

func (p *pebbleDB) Close() error {
	return p.db.Close()
}

// nextPrefix returns the smallest key greater than every key starting
// with prefix, or nil when prefix is all 0xFF.
func nextPrefix(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	out := append([]byte{}, prefix...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

func (p *pebbleDB) BatchRead(prefix []byte, r func(k, v []byte) error) error {
	opts := &pebble.IterOptions{}
	if len(prefix) > 0 {
		opts.LowerBound = prefix
		opts.UpperBound = nextPrefix(prefix)
	}
	it, err := p.db.NewIter(opts)
	if err != nil {
		return err
	}
	defer it.Close()

	for ok := it.First(); ok; ok = it.Next() {
		if err := r(append([]byte{}, it.Key()...), append([]byte{}, it.Value()...)); err != nil {
			return err
		}
	}
	return it.Error()
}

func (p *pebbleDB) DropPrefix(prefix []byte) error {
	batch := p.db.NewBatch()
	defer batch.Close()

	err := p.BatchRead(prefix, func(k, v []byte) error {
		return batch.Delete(k, nil)
	})
	if err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}
