package entry

import "github.com/cespare/xxhash/v2"

// KeyBuffer carries a serialized key together with its 64-bit hash. The
// orchestrator builds one per lookup/insert and hands it to CompareKey;
// the hash is computed once, up front, with xxhash.
type KeyBuffer struct {
	arr  []byte
	hash uint64
}

// NewKeyBuffer wraps serialized key bytes. The buffer is not copied; the
// caller must not mutate it while the KeyBuffer is in use.
func NewKeyBuffer(key []byte) *KeyBuffer {
	return &KeyBuffer{arr: key, hash: xxhash.Sum64(key)}
}

// Bytes returns the serialized key.
func (k *KeyBuffer) Bytes() []byte { return k.arr }

// Hash returns the key's 64-bit hash.
func (k *KeyBuffer) Hash() uint64 { return k.hash }

// Len returns the serialized key length in bytes.
func (k *KeyBuffer) Len() int64 { return int64(len(k.arr)) }
