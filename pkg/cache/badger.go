package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/dgraph-io/badger/options"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	badgerVersion     = 1
	badgerVersionPath = "librepod/version"
	badgerEntryPath   = "cache/%s"
)

// BadgerOptions represents BadgerDB configuration parameters
type BadgerOptions struct {
	Truncate bool
	FileIO   bool
	TTL      time.Duration
}

// Badger keeps cache entries in an embedded on-disk key-value store
type Badger struct {
	db  *badger.DB
	ttl time.Duration
}

var _ Store = (*Badger)(nil)

func NewBadger(dir string, opts BadgerOptions) (*Badger, error) {
	log.Infof("opening cache database %q", dir)

	// Make sure database directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "could not mkdir cache dir")
	}

	badgerOpts := badger.DefaultOptions(dir).
		WithLogger(log.StandardLogger()).
		WithTruncate(opts.Truncate)

	if opts.FileIO {
		badgerOpts.ValueLogLoadingMode = options.FileIO
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open cache database")
	}

	if err := db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(badgerVersionPath))
		if err == nil {
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		return txn.Set([]byte(badgerVersionPath), []byte(fmt.Sprint(badgerVersion)))
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to write cache database version")
	}

	return &Badger{db: db, ttl: opts.TTL}, nil
}

func (b *Badger) Close() error {
	log.Debug("closing cache database")
	return b.db.Close()
}

func (b *Badger) Get(_ context.Context, key string) (*Entry, error) {
	var data []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.getKey(key))
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	})

	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to query cache key %q", key)
	}

	return Unmarshal(data)
}

func (b *Badger) Set(_ context.Context, key string, entry *Entry) error {
	data, err := Marshal(entry)
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(b.getKey(key), data)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}

		return txn.SetEntry(e)
	})
}

func (b *Badger) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.getKey(key))
	})
	if err != nil {
		return errors.Wrapf(err, "failed to delete cache key %q", key)
	}

	return nil
}

func (b *Badger) getKey(key string) []byte {
	resourcePath := fmt.Sprintf(badgerEntryPath, key)
	fullPath := fmt.Sprintf("librepod/v%d/%s", badgerVersion, resourcePath)

	return []byte(fullPath)
}
