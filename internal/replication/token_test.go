package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenRNG_DeterministicWithSeed(t *testing.T) {
	a := newTokenRNG(1234)
	b := newTokenRNG(1234)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.next(), b.next(), "одинаковое зерно должно давать идентичную последовательность")
	}
}

func TestTokenRNG_NextTokenNeverZeroOrRepeat(t *testing.T) {
	r := newTokenRNG(42)
	prev := uint16(0)
	for i := 0; i < 500; i++ {
		tok := r.nextToken(prev)
		assert.NotZero(t, tok)
		assert.NotEqual(t, prev, tok)
		prev = tok
	}
}

func TestTokenRNG_ZeroSeedStillProducesOutput(t *testing.T) {
	r := newTokenRNG(0)
	assert.NotZero(t, r.next())
}
