// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/ratingrec/internal/recommend"
)

// Key layout:
//
//	r/<split>/<user>/<item> -> one byte rating
//	meta/saved_at           -> RFC 3339 timestamp of the last Save
const (
	ratingPrefix = "r/"
	metaPrefix   = "meta/"
	savedAtKey   = metaPrefix + "saved_at"
)

// BadgerProvider stores a split in an embedded BadgerDB.
type BadgerProvider struct {
	db  *badger.DB
	dir string
}

// OpenBadgerProvider opens (or creates) a BadgerDB at dir. An empty dir
// opens an in-memory database.
func OpenBadgerProvider(dir string) (*BadgerProvider, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return &BadgerProvider{db: db, dir: dir}, nil
}

// Name implements Provider.
func (p *BadgerProvider) Name() string { return string(KindBadger) }

// Load reads every rating key. A database without the saved_at marker has
// never been saved and is reported as not found.
func (p *BadgerProvider) Load(ctx context.Context) (*recommend.Dataset, bool, error) {
	ds := recommend.NewDataset()
	found := false

	err := p.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(savedAtKey)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		found = true

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(ratingPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		n := 0
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			n++
			if n%10000 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			item := it.Item()
			split, user, itemID, err := parseRatingKey(string(item.Key()))
			if err != nil {
				return err
			}
			var r recommend.Rating
			err = item.Value(func(val []byte) error {
				if len(val) != 1 {
					return fmt.Errorf("key %q: rating value has %d bytes", item.Key(), len(val))
				}
				r = recommend.Rating(val[0])
				return nil
			})
			if err != nil {
				return err
			}
			if err := put(ds, split, user, itemID, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("load from BadgerDB: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return ds, true, nil
}

// Save replaces the stored split with ds.
func (p *BadgerProvider) Save(ctx context.Context, ds *recommend.Dataset) error {
	if ds == nil {
		return recommend.ErrInvalidDataset
	}
	if err := p.db.DropPrefix([]byte(ratingPrefix), []byte(metaPrefix)); err != nil {
		return fmt.Errorf("clear BadgerDB: %w", err)
	}

	wb := p.db.NewWriteBatch()
	for _, split := range []string{SplitTrain, SplitTest} {
		ratings := ratingsFor(ds, split)
		for _, user := range ratings.Users() {
			if err := ctx.Err(); err != nil {
				wb.Cancel()
				return err
			}
			for item, r := range ratings[user] {
				key, err := ratingKey(split, user, item)
				if err != nil {
					wb.Cancel()
					return err
				}
				if err := wb.Set(key, []byte{byte(r)}); err != nil {
					wb.Cancel()
					return fmt.Errorf("write rating: %w", err)
				}
			}
		}
	}
	if err := wb.Set([]byte(savedAtKey), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
		wb.Cancel()
		return fmt.Errorf("write saved_at: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush BadgerDB batch: %w", err)
	}
	return nil
}

// Close closes the database.
func (p *BadgerProvider) Close() error {
	return p.db.Close()
}

func ratingKey(split string, user recommend.UserID, item recommend.ItemID) ([]byte, error) {
	if strings.Contains(string(user), "/") || strings.Contains(string(item), "/") {
		return nil, fmt.Errorf("user %q item %q: IDs must not contain '/'", user, item)
	}
	return []byte(ratingPrefix + split + "/" + string(user) + "/" + string(item)), nil
}

func parseRatingKey(key string) (split string, user recommend.UserID, item recommend.ItemID, err error) {
	parts := strings.Split(strings.TrimPrefix(key, ratingPrefix), "/")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed rating key %q", key)
	}
	return parts[0], recommend.UserID(parts[1]), recommend.ItemID(parts[2]), nil
}
