package sqldigest

import (
	"testing"

	"github.com/k0kubun/sqlitesession/changeset"
	"github.com/k0kubun/sqlitesession/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersTable(t *testing.T) *schema.NamedTable {
	t.Helper()
	tbl, err := schema.NewNamed("users", []string{"id", "name"}, []uint8{1, 0})
	require.NoError(t, err)
	return tbl
}

func TestDigestInsert(t *testing.T) {
	tbl := usersTable(t)
	ds := changeset.New(changeset.Patchset)

	err := Digest(ds, tbl, `INSERT INTO users (id, name) VALUES (1, 'Alice')`)
	require.NoError(t, err)

	got := ds.Build()
	assert.Contains(t, string(got), "Alice")
}

func TestDigestUpdateLeavesNonPKOldUndefined(t *testing.T) {
	tbl := usersTable(t)
	ds := changeset.New(changeset.Patchset)

	err := Digest(ds, tbl, `UPDATE users SET name = 'Bob' WHERE id = 1`)
	require.NoError(t, err)

	got := ds.Build()
	assert.Contains(t, string(got), "Bob")
	// Record tail: Undefined old name, then new name Text "Bob".
	assert.Equal(t, append([]byte{0x00, 0x03, 0x03}, "Bob"...), got[len(got)-6:])
}

func TestDigestDelete(t *testing.T) {
	tbl := usersTable(t)
	ds := changeset.New(changeset.Patchset)

	err := Digest(ds, tbl, `DELETE FROM users WHERE id = 1`)
	require.NoError(t, err)
	assert.NotEmpty(t, ds.Build())
}

func TestDigestRejectsChangeset(t *testing.T) {
	tbl := usersTable(t)
	ds := changeset.New(changeset.Changeset)

	err := Digest(ds, tbl, `DELETE FROM users WHERE id = 1`)
	assert.ErrorIs(t, err, ErrUnsupportedStmt)
}

func TestDigestRejectsUnknownTable(t *testing.T) {
	tbl := usersTable(t)
	ds := changeset.New(changeset.Patchset)

	err := Digest(ds, tbl, `DELETE FROM accounts WHERE id = 1`)
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestDigestRejectsUnknownColumn(t *testing.T) {
	tbl := usersTable(t)
	ds := changeset.New(changeset.Patchset)

	err := Digest(ds, tbl, `UPDATE users SET nickname = 'Bob' WHERE id = 1`)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestDigestRejectsNonPKWhereClause(t *testing.T) {
	tbl := usersTable(t)
	ds := changeset.New(changeset.Patchset)

	err := Digest(ds, tbl, `DELETE FROM users WHERE name = 'Alice'`)
	assert.ErrorIs(t, err, ErrUnsupportedStmt)
}

func TestDigestHexBlobLiteral(t *testing.T) {
	tbl, err := schema.NewNamed("blobs", []string{"id", "payload"}, []uint8{1, 0})
	require.NoError(t, err)
	ds := changeset.New(changeset.Patchset)

	err = Digest(ds, tbl, `INSERT INTO blobs (id, payload) VALUES (1, X'deadbeef')`)
	require.NoError(t, err)
}

func TestDigestRejectsMultipleStatements(t *testing.T) {
	tbl := usersTable(t)
	ds := changeset.New(changeset.Patchset)

	err := Digest(ds, tbl, `DELETE FROM users WHERE id = 1; DELETE FROM users WHERE id = 2`)
	assert.ErrorIs(t, err, ErrUnsupportedStmt)
}
