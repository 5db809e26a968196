package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/sigstream/sigstream/log"
)

// LevelDB is a disk-backed store implementing the Database interface on
// top of goleveldb.
type LevelDB struct {
	db     *leveldb.DB
	path   string
	logger *log.Logger
}

// OpenLevelDB opens (or creates) a leveldb database at the given path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	logger := log.Module("storage")
	logger.Info("leveldb opened", "path", path)
	return &LevelDB{db: db, path: path, logger: logger}, nil
}

func (l *LevelDB) Has(key []byte) (bool, error) {
	return l.db.Has(key, nil)
}

func (l *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := l.db.Get(key, nil)
	if err == lerrors.ErrNotFound {
		return nil, ErrNotFound
	}
	return val, err
}

func (l *LevelDB) Put(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *LevelDB) Close() error {
	l.logger.Info("leveldb closed", "path", l.path)
	return l.db.Close()
}

// NewIterator returns an iterator over all keys with the given prefix.
func (l *LevelDB) NewIterator(prefix []byte) Iterator {
	return &ldbIterator{it: l.db.NewIterator(util.BytesPrefix(prefix), nil)}
}

type ldbIterator struct {
	it iterator.Iterator
}

func (it *ldbIterator) Next() bool    { return it.it.Next() }
func (it *ldbIterator) Key() []byte   { return it.it.Key() }
func (it *ldbIterator) Value() []byte { return it.it.Value() }
func (it *ldbIterator) Release()      { it.it.Release() }
