package bookings

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

// Crockford base32: no I, L, O or U, so references survive being read aloud.
const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const referenceBodyLen = 8

// MaxReferenceAttempts bounds the collision-check loop when assigning a reference.
const MaxReferenceAttempts = 5

// ReferenceGenerator produces candidate booking references.
type ReferenceGenerator func() (string, error)

// NewReferenceGenerator returns references of the form PREFIX + 8 random
// Crockford characters + 1 check character, e.g. "TML7K3QZ9MAT".
func NewReferenceGenerator(prefix string) ReferenceGenerator {
	return referenceFrom(prefix, rand.Reader)
}

func referenceFrom(prefix string, src io.Reader) ReferenceGenerator {
	return func() (string, error) {
		// 5 bytes = 40 bits = exactly 8 base32 characters
		var buf [5]byte
		if _, err := io.ReadFull(src, buf[:]); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		var n uint64
		for _, b := range buf {
			n = n<<8 | uint64(b)
		}

		body := make([]byte, referenceBodyLen)
		for i := referenceBodyLen - 1; i >= 0; i-- {
			body[i] = crockford[n&31]
			n >>= 5
		}
		return prefix + string(body) + string(checkChar(body)), nil
	}
}

// checkChar is a position-weighted sum mod 32, catching single-character
// typos and most adjacent swaps.
func checkChar(body []byte) byte {
	sum := 0
	for i, c := range body {
		sum += (i + 1) * strings.IndexByte(crockford, c)
	}
	return crockford[sum%32]
}

// ValidReference reports whether ref is well formed for prefix.
func ValidReference(prefix, ref string) bool {
	ref = strings.ToUpper(ref)
	if len(ref) != len(prefix)+referenceBodyLen+1 || !strings.HasPrefix(ref, prefix) {
		return false
	}
	rest := ref[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if strings.IndexByte(crockford, rest[i]) < 0 {
			return false
		}
	}
	return checkChar([]byte(rest[:referenceBodyLen])) == rest[referenceBodyLen]
}
