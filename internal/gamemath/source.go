package gamemath

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
)

// Source is the only way gameplay draws randomness.
type Source interface {
	// IntN returns a uniform integer in [0, n). n must be positive.
	IntN(n int) int
}

// SourceFactory builds the source for one wager and returns the hash of the
// seed it was keyed with, so the outcome can be verified after rotation.
type SourceFactory func(ref string) (Source, string)

type cryptoSource struct{}

func NewCryptoSource() Source {
	return cryptoSource{}
}

func (cryptoSource) IntN(n int) int {
	if n <= 0 {
		panic("gamemath: IntN called with non-positive n")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("gamemath: crypto source failed: %v", err))
	}
	return int(v.Int64())
}

// NewSeededSource is a deterministic PCG source for replays and tests.
func NewSeededSource(seed uint64) Source {
	return mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// hmacSource streams HMAC-SHA256(serverSeed, "ref:round") blocks, four bytes per draw.
type hmacSource struct {
	key   []byte
	ref   string
	round int
	buf   []byte
}

func NewHMACSource(serverSeed, ref string) Source {
	return &hmacSource{key: []byte(serverSeed), ref: ref}
}

func (s *hmacSource) next() uint32 {
	if len(s.buf) < 4 {
		h := hmac.New(sha256.New, s.key)
		fmt.Fprintf(h, "%s:%d", s.ref, s.round)
		s.round++
		s.buf = h.Sum(nil)
	}
	v := binary.BigEndian.Uint32(s.buf[:4])
	s.buf = s.buf[4:]
	return v
}

func (s *hmacSource) IntN(n int) int {
	if n <= 0 {
		panic("gamemath: IntN called with non-positive n")
	}
	const space = uint64(1) << 32
	limit := space - space%uint64(n)
	for {
		v := uint64(s.next())
		if v < limit {
			return int(v % uint64(n))
		}
	}
}

func GenerateServerSeed() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("gamemath: failed to generate server seed: %v", err))
	}
	return hex.EncodeToString(b)
}

func ServerSeedHash(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}
