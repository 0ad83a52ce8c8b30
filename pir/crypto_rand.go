package pir

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"
	mrand "math/rand"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"
)

const SeedLen = 32

// NewSeed returns a fresh random seed for reproducible query encryption.
func NewSeed() ([]byte, error) {
	seed := make([]byte, SeedLen)
	if _, err := io.ReadFull(rand.Reader, seed); err != nil {
		return nil, err
	}
	return seed, nil
}

// derivePRNGKey expands seed into a keyed-PRNG key bound to label.
func derivePRNGKey(seed []byte, label string) []byte {
	key := make([]byte, SeedLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, []byte(label)), key); err != nil {
		logrus.Fatalf("hkdf expansion failed: %v", err)
	}
	return key
}

type cryptoSource struct{}

func (s cryptoSource) Int63() int64 {
	var mask uint64 = 0x7fffffffffffffff
	return int64(s.Uint64() & mask)
}

func (cryptoSource) Uint64() uint64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		logrus.Fatal("rand.Read failed")
	}

	return binary.LittleEndian.Uint64(buf[:])
}

func (cryptoSource) Seed(int64) {
	logrus.Fatal("Not implemented.")
}

// CryptoRandSource returns a math/rand generator backed by crypto/rand.
func CryptoRandSource() *mrand.Rand {
	return mrand.New(cryptoSource{})
}
