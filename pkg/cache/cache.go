// Package cache provides a BadgerDB-backed cache for embedding vectors so
// repeated coverage evaluations do not re-embed the same relations.
package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a key has no cached embedding.
var ErrNotFound = errors.New("embedding not found in cache")

// DefaultTTL is how long cached embeddings are kept.
const DefaultTTL = 30 * 24 * time.Hour

// EmbeddingCache stores embedding vectors keyed by model and input text.
type EmbeddingCache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (or creates) an embedding cache at path.
func Open(path string) (*EmbeddingCache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &EmbeddingCache{db: db, ttl: DefaultTTL}, nil
}

// Get returns the cached embedding for (model, text), or ErrNotFound.
func (c *EmbeddingCache) Get(model, text string) ([]float32, error) {
	var vec []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(model, text))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vec, err = decodeVector(val)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return vec, nil
}

// Put stores the embedding for (model, text).
func (c *EmbeddingCache) Put(model, text string, vec []float32) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key(model, text), encodeVector(vec)).WithTTL(c.ttl)
		return txn.SetEntry(e)
	})
}

// Close closes the underlying database.
func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}

func key(model, text string) []byte {
	return []byte(model + "\x00" + text)
}

func encodeVector(vec []float32) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 4*len(vec)))
	for _, v := range vec {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt embedding: %d bytes", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, nil
}
