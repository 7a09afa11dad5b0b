package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned by Open after the buffer has been destroyed.
var ErrDestroyed = errors.New("secure buffer already destroyed")

// Buffer holds a credential in an encrypted memguard enclave.
//
// memguard.Enclave has no Destroy of its own; the encrypted payload is
// safe at rest, so Destroy here only severs the reference and marks the
// buffer unusable. memguard.Purge() at process exit handles the rest.
type Buffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy calls and blocks use-after-destroy
	destroyed bool
}

// NewBuffer seals secret bytes into a protected buffer.
// memguard wipes the input slice after copying it into the enclave.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{
		enclave: memguard.NewEnclave(data),
	}
}

// NewBufferFromString seals a secret string. Go strings cannot be wiped
// in place; the intermediate copy is, and callers should drop their
// reference to the source string promptly.
func NewBufferFromString(s string) *Buffer {
	return NewBuffer([]byte(s))
}

// Open decrypts the enclave into a locked buffer. The caller MUST call
// Destroy() on the returned LockedBuffer to wipe the plaintext.
// Opening a destroyed buffer fails with ErrDestroyed; memguard cannot
// construct the zero-length buffer that path would otherwise need.
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed {
		return nil, ErrDestroyed
	}

	return b.enclave.Open()
}

// Destroy marks the buffer unusable. Idempotent; after Destroy, Open
// fails with ErrDestroyed.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}

	b.enclave = nil
	b.destroyed = true
}
