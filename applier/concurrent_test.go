package applier

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k0kubun/sqlitesession/changeset"
	"github.com/k0kubun/sqlitesession/schema"
	"github.com/k0kubun/sqlitesession/value"
)

func TestConcurrentMapFuncWithErrorPreservesOrder(t *testing.T) {
	inputs := []int{5, 1, 4, 2, 3}
	out, err := ConcurrentMapFuncWithError(inputs, 3, func(i int) (int, error) {
		return i * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 10, 40, 20, 30}, out)
}

func TestConcurrentMapFuncWithErrorZeroConcurrencySerializes(t *testing.T) {
	var inFlight int32
	var maxInFlight int32
	inputs := []int{1, 2, 3, 4}
	_, err := ConcurrentMapFuncWithError(inputs, 0, func(i int) (int, error) {
		n := atomic.AddInt32(&inFlight, 1)
		if n > maxInFlight {
			maxInFlight = n
		}
		atomic.AddInt32(&inFlight, -1)
		return i, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, maxInFlight, int32(1))
}

func TestConcurrentMapFuncWithErrorSurfacesFirstError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ConcurrentMapFuncWithError([]int{1, 2, 3}, -1, func(i int) (int, error) {
		if i == 2 {
			return 0, boom
		}
		return i, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestBuildTableBatchesGroupsPerTableAndDropsUnknown(t *testing.T) {
	users, err := schema.NewNamed("users", []string{"id"}, []uint8{1})
	require.NoError(t, err)
	posts, err := schema.NewNamed("posts", []string{"id"}, []uint8{1})
	require.NoError(t, err)

	ds := changeset.New(changeset.Patchset)
	require.NoError(t, ds.Insert(users.Table, changeset.NewInsert().Set(0, value.NewInteger(1))))
	require.NoError(t, ds.Insert(posts.Table, changeset.NewInsert().Set(0, value.NewInteger(2))))

	ghost, err := schema.New("ghost", []uint8{1})
	require.NoError(t, err)
	require.NoError(t, ds.Insert(ghost, changeset.NewInsert().Set(0, value.NewInteger(3))))

	nameOf := map[string]*schema.NamedTable{"users": users, "posts": posts}
	batches := buildTableBatches(ds, nameOf, testDialect{})

	require.Len(t, batches, 2)
	assert.Equal(t, "users", batches[0].name)
	assert.Equal(t, "posts", batches[1].name)
	assert.Len(t, batches[0].statements, 1)
	assert.Len(t, batches[1].statements, 1)
}
