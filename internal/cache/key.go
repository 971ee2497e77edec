package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"

	"irkit/internal/ir"
)

// Key addresses one materialized artifact.
type Key [sha256.Size]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// IsZero reports whether k was never computed.
func (k Key) IsZero() bool { return k == Key{} }

// KeyFor digests the printed module together with the backend kind and the
// tool version, so any change to the IR, the backend or irkit itself misses.
func KeyFor(m *ir.Module, backend, toolVersion string) (Key, error) {
	h := sha256.New()
	for _, s := range []string{"irkit/cache/v1", toolVersion, backend} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	if err := ir.Fprint(h, m); err != nil {
		return Key{}, errors.Wrapf(err, "cache key for %s", m.Name())
	}
	var k Key
	h.Sum(k[:0])
	return k, nil
}
