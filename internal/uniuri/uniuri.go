package uniuri

import (
	"crypto/rand"
	"math/big"
)

// DefaultLen is the length of generated bootstrap passwords.
const DefaultLen = 20

// alphabet leaves out characters that are easy to misread in a log line.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

// New returns a random string of DefaultLen characters.
func New() string {
	return NewLen(DefaultLen)
}

// NewLen returns a random string of length characters drawn uniformly from
// the alphabet. It panics when the system random source fails.
func NewLen(length int) string {
	if length <= 0 {
		return ""
	}

	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)

	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic("uniuri: random source failed: " + err.Error())
		}

		out[i] = alphabet[n.Int64()]
	}

	return string(out)
}
