// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// artifactKeyPrefix namespaces artifact keys inside the Badger keyspace.
const artifactKeyPrefix = "artifact:"

// BadgerPersister stores artifacts in BadgerDB keyed by (kind, generation).
// Generations are zero-padded so lexical key order matches numeric order,
// which lets LoadLatest reverse-iterate the kind prefix.
type BadgerPersister struct {
	db *badger.DB
}

// NewBadgerPersister creates a Badger-backed artifact persister.
func NewBadgerPersister(db *badger.DB) *BadgerPersister {
	return &BadgerPersister{db: db}
}

func artifactKey(kind Kind, generation uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", artifactKeyPrefix, kind, generation))
}

func kindPrefix(kind Kind) []byte {
	return []byte(artifactKeyPrefix + kind.String() + ":")
}

// Save persists one artifact generation.
func (p *BadgerPersister) Save(ctx context.Context, art *Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(artifactKey(art.Kind, art.Generation), data)
	})
}

// LoadLatest returns the highest persisted generation for a kind.
func (p *BadgerPersister) LoadLatest(ctx context.Context, kind Kind) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var art Artifact
	err := p.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = kindPrefix(kind)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must seek past the last possible key in the prefix.
		seek := append(kindPrefix(kind), 0xFF)
		it.Seek(seek)
		if !it.ValidForPrefix(kindPrefix(kind)) {
			return ErrNoArtifact
		}

		return it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &art)
		})
	})
	if err != nil {
		return nil, err
	}
	return &art, nil
}

// Prune removes all persisted generations for a kind except the newest keep.
func (p *BadgerPersister) Prune(ctx context.Context, kind Kind, keep int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if keep <= 0 {
		return errors.New("keep must be positive")
	}

	var stale [][]byte
	err := p.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = kindPrefix(kind)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		seen := 0
		seek := append(kindPrefix(kind), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(kindPrefix(kind)); it.Next() {
			seen++
			if seen > keep {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	return p.db.Update(func(txn *badger.Txn) error {
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete stale artifact %s: %w", key, err)
			}
		}
		return nil
	})
}
