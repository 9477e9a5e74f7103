package applier

import (
	"testing"

	"github.com/k0kubun/sqlitesession/changeset"
	"github.com/k0kubun/sqlitesession/schema"
	"github.com/k0kubun/sqlitesession/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDialect struct{}

func (testDialect) QuoteIdent(name string) string   { return "`" + name + "`" }
func (testDialect) Placeholder(position int) string { return "?" }

func namedUsers(t *testing.T) *schema.NamedTable {
	t.Helper()
	named, err := schema.NewNamed("users", []string{"id", "name"}, []uint8{1, 0})
	require.NoError(t, err)
	return named
}

func TestBuildStatementsInsert(t *testing.T) {
	named := namedUsers(t)
	ds := changeset.New(changeset.Patchset)
	require.NoError(t, ds.Insert(named.Table, changeset.NewInsert().
		Set(0, value.NewInteger(1)).
		Set(1, value.NewText([]byte("Alice")))))

	stmts := BuildStatements(ds, map[string]*schema.NamedTable{"users": named}, testDialect{})
	require.Len(t, stmts, 1)
	assert.Equal(t, "INSERT INTO `users` (`id`, `name`) VALUES (?, ?)", stmts[0].SQL)
	assert.Equal(t, []any{int64(1), "Alice"}, stmts[0].Args)
}

func TestBuildStatementsDelete(t *testing.T) {
	named := namedUsers(t)
	ds := changeset.New(changeset.Patchset)
	require.NoError(t, ds.Delete(named.Table, changeset.NewDelete().Set(0, value.NewInteger(1))))

	stmts := BuildStatements(ds, map[string]*schema.NamedTable{"users": named}, testDialect{})
	require.Len(t, stmts, 1)
	assert.Equal(t, "DELETE FROM `users` WHERE `id` = ?", stmts[0].SQL)
	assert.Equal(t, []any{int64(1)}, stmts[0].Args)
}

func TestBuildStatementsUpdateSkipsUndefinedColumns(t *testing.T) {
	named := namedUsers(t)
	ds := changeset.New(changeset.Patchset)
	require.NoError(t, ds.Update(named.Table, changeset.NewUpdate().
		Set(0, value.NewInteger(1), value.NewInteger(1)).
		Set(1, nil, value.NewText([]byte("Bob")))))

	stmts := BuildStatements(ds, map[string]*schema.NamedTable{"users": named}, testDialect{})
	require.Len(t, stmts, 1)
	assert.Equal(t, "UPDATE `users` SET `name` = ? WHERE `id` = ?", stmts[0].SQL)
	assert.Equal(t, []any{"Bob", int64(1)}, stmts[0].Args)
}

func TestBuildStatementsSkipsUnknownTable(t *testing.T) {
	tbl, err := schema.New("ghost", []uint8{1})
	require.NoError(t, err)
	ds := changeset.New(changeset.Patchset)
	require.NoError(t, ds.Insert(tbl, changeset.NewInsert().Set(0, value.NewInteger(1))))

	stmts := BuildStatements(ds, map[string]*schema.NamedTable{}, testDialect{})
	assert.Empty(t, stmts)
}
