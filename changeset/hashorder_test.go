package changeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowHashSingleByteFold(t *testing.T) {
	// For a one-byte key, h starts at 0 and folds to exactly that byte:
	// h <- (0*8) XOR 0 XOR a == a.
	for a := 0; a < 6; a++ {
		assert.Equal(t, uint64(a), rowHash([]byte{byte(a)}))
	}
}

func TestEmissionOrderFollowsBucketIndexNotInsertionOrder(t *testing.T) {
	// Keys whose hashes land in distinct, non-colliding buckets must emit
	// in ascending bucket order regardless of the order they were
	// registered in.
	keys := []string{"\x05", "\x01", "\x03", "\x00", "\x04", "\x02"}

	ht := newRowHashTable()
	for _, k := range keys {
		ht.Insert(k)
	}
	assert.Equal(t, []string{"\x00", "\x01", "\x02", "\x03", "\x04", "\x05"}, ht.EmissionOrder())

	reordered := newRowHashTable()
	for i := len(keys) - 1; i >= 0; i-- {
		reordered.Insert(keys[i])
	}
	assert.Equal(t, ht.EmissionOrder(), reordered.EmissionOrder())
}

func TestPrependOrdersMostRecentFirstWithinABucket(t *testing.T) {
	// h("\x01\x00") = (1*8)^1^0 = 9 and h("\x00\x09") = (0*8)^0^9 = 9:
	// two distinct keys that collide in bucket 9 at the initial 256-bucket
	// size, letting us observe the prepend-to-head placement rule.
	key1, key2 := "\x01\x00", "\x00\x09"
	assert.Equal(t, rowHash([]byte(key1))%initialBucketCount, rowHash([]byte(key2))%initialBucketCount)

	ht := newRowHashTable()
	ht.Insert(key1)
	ht.Insert(key2)
	assert.Equal(t, []string{key2, key1}, ht.EmissionOrder())
}

func TestGrowTriggersAtHalfBucketCount(t *testing.T) {
	ht := newRowHashTable()
	for i := 0; i < 128; i++ {
		ht.Insert(keyFor(i))
	}
	assert.Equal(t, initialBucketCount, len(ht.buckets))

	ht.Insert(keyFor(128))
	assert.Equal(t, initialBucketCount*2, len(ht.buckets))
	assert.Equal(t, 129, ht.count)
}

func TestRemoveDoesNotShrinkBucketArray(t *testing.T) {
	ht := newRowHashTable()
	for i := 0; i < 129; i++ {
		ht.Insert(keyFor(i))
	}
	size := len(ht.buckets)
	for i := 0; i < 129; i++ {
		ht.Remove(keyFor(i))
	}
	assert.Equal(t, size, len(ht.buckets))
	assert.Equal(t, 0, ht.count)
	assert.Empty(t, ht.EmissionOrder())
}

func keyFor(i int) string {
	return string([]byte{byte(i >> 8), byte(i)})
}

func TestFromOrderReproducesGivenOrderUnderCollision(t *testing.T) {
	// Same colliding pair as TestPrependOrdersMostRecentFirstWithinABucket.
	// Insert gives B = [key2, key1]. A table rebuilt from B via
	// newRowHashTableFromOrder must emit exactly B back out, not re-reverse
	// it the way a second round of prepend-based Insert calls would.
	key1, key2 := "\x01\x00", "\x00\x09"
	b := []string{key2, key1}

	rebuilt := newRowHashTableFromOrder(b)
	assert.Equal(t, b, rebuilt.EmissionOrder())

	// And rebuilding again from that output is a fixed point.
	again := newRowHashTableFromOrder(rebuilt.EmissionOrder())
	assert.Equal(t, b, again.EmissionOrder())
}

func TestFinalBucketCountMatchesIncrementalGrowth(t *testing.T) {
	for n := 0; n < 300; n++ {
		ht := newRowHashTable()
		for i := 0; i < n; i++ {
			ht.Insert(keyFor(i))
		}
		assert.Equal(t, len(ht.buckets), finalBucketCount(n), "n=%d", n)
	}
}
