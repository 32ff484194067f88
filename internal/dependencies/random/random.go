package random

import (
	crand "crypto/rand"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// Random is the randomness behind room codes, bot ids, bot secrets and
// match ids. Tests swap in a scripted source.
type Random interface {
	// Intn returns an int in [0, n), or 0 when n <= 0
	Intn(n int) int

	// String draws length characters from alphabet
	String(length int, alphabet string) string

	// UUID returns a version 4 UUID string
	UUID() string
}

// Source is a ChaCha8 generator seeded from the operating system.
// It is shared by the event loop and timer goroutines.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New seeds a Source from crypto/rand
func New() *Source {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return NewSeeded(seed)
}

// NewSeeded builds a deterministic Source, for reproducible runs
func NewSeeded(seed [32]byte) *Source {
	return &Source{rng: rand.New(rand.NewChaCha8(seed))}
}

func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *Source) String(length int, alphabet string) string {
	if length <= 0 || alphabet == "" {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[s.rng.IntN(len(alphabet))]
	}
	return string(out)
}

func (s *Source) UUID() string {
	return uuid.NewString()
}
