// Package fingerprint computes a deterministic, content-addressed digest
// of a value tree. The weaver uses it to derive stable identifiers for
// aspects and advisors straight from their configuration, so re-booting
// with an unchanged configuration produces the same identifiers without
// needing a separate ID allocator.
package fingerprint

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"sync"
)

type Hasher struct {
	hash hash.Hash
}

type Hashable interface {
	Hash(h *Hasher) error
}

var pool = sync.Pool{New: func() any { return &Hasher{hash: sha512.New()} }}

// Fingerprint returns a URL-safe, base64-encoded digest of val.
func Fingerprint(val Hashable) (string, error) {
	h, _ := pool.Get().(*Hasher)
	defer func() {
		h.hash.Reset()
		pool.Put(h)
	}()

	if val != nil {
		if err := val.Hash(h); err != nil {
			return "", err
		}
	}

	var buf [sha512.Size]byte
	return base64.URLEncoding.EncodeToString(h.hash.Sum(buf[:0])), nil
}

// Named folds a named, ordered sequence of sub-values into the hash.
func (h *Hasher) Named(name string, vals ...Hashable) error {
	if _, err := fmt.Fprintf(h.hash, "\x01%s\x02", name); err != nil {
		return err
	}

	for idx, val := range vals {
		if _, err := fmt.Fprintf(h.hash, "\x01%d\x02", idx); err != nil {
			return err
		}
		if err := val.Hash(h); err != nil {
			return err
		}
		if _, err := fmt.Fprint(h.hash, "\x03"); err != nil {
			return err
		}
	}

	_, err := fmt.Fprint(h.hash, "\x03", name)
	return err
}
