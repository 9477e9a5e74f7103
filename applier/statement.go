package applier

import (
	"fmt"
	"strings"

	"github.com/k0kubun/sqlitesession/changeset"
	"github.com/k0kubun/sqlitesession/schema"
	"github.com/k0kubun/sqlitesession/value"
)

// Dialect supplies the two things that differ across database/sql
// drivers when building literal statements from an Op: how identifiers
// are quoted, and how positional placeholders are spelled.
type Dialect interface {
	QuoteIdent(name string) string
	Placeholder(position int) string // position is 1-based
}

// Statement is one literal SQL statement ready for tx.ExecContext.
type Statement struct {
	SQL  string
	Args []any
}

// BuildStatements turns every operation Walk returns into a Statement,
// resolving column names against nameOf (keyed by table name) and
// quoting/placeholding per dialect.
func BuildStatements(ds *changeset.DiffSet, nameOf map[string]*schema.NamedTable, dialect Dialect) []Statement {
	var out []Statement
	for _, t := range ds.Walk() {
		named, ok := nameOf[t.Table.Name()]
		if !ok {
			continue
		}
		out = append(out, tableStatements(named, t.Ops, dialect)...)
	}
	return out
}

// tableBatch is one table's statements, the unit Apply fans out to its
// own transaction so independent tables' batches can run concurrently.
type tableBatch struct {
	name       string
	statements []Statement
}

// buildTableBatches groups ds's operations by table, in Walk's order,
// dropping tables absent from nameOf and tables with no resulting
// statements.
func buildTableBatches(ds *changeset.DiffSet, nameOf map[string]*schema.NamedTable, dialect Dialect) []tableBatch {
	var out []tableBatch
	for _, t := range ds.Walk() {
		named, ok := nameOf[t.Table.Name()]
		if !ok {
			continue
		}
		stmts := tableStatements(named, t.Ops, dialect)
		if len(stmts) == 0 {
			continue
		}
		out = append(out, tableBatch{name: named.Name(), statements: stmts})
	}
	return out
}

func tableStatements(named *schema.NamedTable, ops []changeset.Op, dialect Dialect) []Statement {
	var out []Statement
	for _, op := range ops {
		switch op.Kind {
		case changeset.OpInsert:
			out = append(out, buildInsert(named, op, dialect))
		case changeset.OpDelete:
			out = append(out, buildDelete(named, op, dialect))
		case changeset.OpUpdate:
			out = append(out, buildUpdate(named, op, dialect))
		}
	}
	return out
}

func buildInsert(t *schema.NamedTable, op changeset.Op, d Dialect) Statement {
	names := t.ColumnNames()
	var cols []string
	var placeholders []string
	var args []any
	pos := 1
	for i, v := range op.New {
		if value.IsUndefined(v) {
			continue
		}
		cols = append(cols, d.QuoteIdent(names[i]))
		placeholders = append(placeholders, d.Placeholder(pos))
		args = append(args, toDriverValue(v))
		pos++
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(t.Name()), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return Statement{SQL: sql, Args: args}
}

func buildDelete(t *schema.NamedTable, op changeset.Op, d Dialect) Statement {
	names := t.ColumnNames()
	where, args := pkPredicate(t, names, op.Old, d, 1)
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", d.QuoteIdent(t.Name()), where)
	return Statement{SQL: sql, Args: args}
}

func buildUpdate(t *schema.NamedTable, op changeset.Op, d Dialect) Statement {
	names := t.ColumnNames()
	pkSet := make(map[int]bool)
	for _, i := range t.PKIndices() {
		pkSet[i] = true
	}

	var sets []string
	var args []any
	pos := 1
	for i, v := range op.New {
		if pkSet[i] || value.IsUndefined(v) {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", d.QuoteIdent(names[i]), d.Placeholder(pos)))
		args = append(args, toDriverValue(v))
		pos++
	}

	where, whereArgs := pkPredicate(t, names, op.Old, d, pos)
	args = append(args, whereArgs...)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s", d.QuoteIdent(t.Name()), strings.Join(sets, ", "), where)
	return Statement{SQL: sql, Args: args}
}

func pkPredicate(t *schema.NamedTable, names []string, row []*value.Value, d Dialect, startPos int) (string, []any) {
	var clauses []string
	var args []any
	pos := startPos
	for _, i := range t.PKIndices() {
		clauses = append(clauses, fmt.Sprintf("%s = %s", d.QuoteIdent(names[i]), d.Placeholder(pos)))
		args = append(args, toDriverValue(row[i]))
		pos++
	}
	return strings.Join(clauses, " AND "), args
}

// toDriverValue converts a wire Value into a database/sql-compatible
// argument. Undefined must never reach here: callers filter it out
// before building an arg list.
func toDriverValue(v *value.Value) any {
	if value.IsUndefined(v) {
		return nil
	}
	switch v.Kind() {
	case value.Null:
		return nil
	case value.Integer:
		return v.Int64()
	case value.Real:
		return v.Float64()
	case value.Text:
		return string(v.Bytes())
	case value.Blob:
		return v.Bytes()
	default:
		return nil
	}
}
