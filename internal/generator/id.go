package generator

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Alphabet is the set of symbols short codes and user IDs are drawn from.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// GenerateID returns a random identifier of exactly length symbols from Alphabet.
// Each symbol is picked uniformly and independently. A negative length is an error.
func GenerateID(length int) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("invalid identifier length %d", length)
	}
	if length == 0 {
		return "", nil
	}

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b.WriteByte(Alphabet[n.Int64()])
	}

	return b.String(), nil
}

// Generator produces identifiers of a fixed length.
type Generator struct {
	length int
}

// New returns a Generator producing identifiers of the given length.
func New(length int) *Generator {
	return &Generator{length: length}
}

// NewID returns a fresh identifier.
func (g *Generator) NewID() (string, error) {
	return GenerateID(g.length)
}

// Length reports the identifier length.
func (g *Generator) Length() int {
	return g.length
}

// IsValid reports whether id has the given length and uses only Alphabet symbols.
func IsValid(id string, length int) bool {
	if len(id) != length {
		return false
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(Alphabet, id[i]) < 0 {
			return false
		}
	}
	return true
}
