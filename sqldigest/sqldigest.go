// Package sqldigest turns literal INSERT/UPDATE/DELETE statements into
// patchset operations, for tooling that captures row mutations as SQL
// text (triggers, binlogs, audit logs) rather than through the native
// changeset/patchset wire protocol. It is patchset-only: SQL DML text
// never carries the old non-PK values a changeset needs.
package sqldigest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v2"

	"github.com/k0kubun/sqlitesession/changeset"
	"github.com/k0kubun/sqlitesession/schema"
	"github.com/k0kubun/sqlitesession/value"
)

// Failure kinds, per §4.G.
var (
	ErrUnknownTable        = errors.New("sqldigest: unknown table")
	ErrUnknownColumn       = errors.New("sqldigest: unknown column")
	ErrBadLiteral          = errors.New("sqldigest: malformed literal")
	ErrUnsupportedStmt     = errors.New("sqldigest: unsupported statement")
	errNonPKWhereCondition = fmt.Errorf("%w: WHERE clause must be a conjunction of PK equalities", ErrUnsupportedStmt)
)

// Digest parses a single SQL statement and applies the resulting
// operation to ds against the given named-column schema.
func Digest(ds *changeset.DiffSet, table *schema.NamedTable, sql string) error {
	if ds.Format() != changeset.Patchset {
		return fmt.Errorf("%w: digest_sql requires a patchset DiffSet", ErrUnsupportedStmt)
	}

	result, err := pgquery.Parse(sql)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadLiteral, err)
	}
	if len(result.Stmts) != 1 {
		return fmt.Errorf("%w: expected exactly one statement", ErrUnsupportedStmt)
	}
	stmt := result.Stmts[0].Stmt
	if stmt == nil {
		return fmt.Errorf("%w: empty statement", ErrUnsupportedStmt)
	}

	switch node := stmt.Node.(type) {
	case *pgquery.Node_InsertStmt:
		return digestInsert(ds, table, node.InsertStmt)
	case *pgquery.Node_UpdateStmt:
		return digestUpdate(ds, table, node.UpdateStmt)
	case *pgquery.Node_DeleteStmt:
		return digestDelete(ds, table, node.DeleteStmt)
	default:
		return fmt.Errorf("%w: only INSERT, UPDATE, DELETE are accepted", ErrUnsupportedStmt)
	}
}

func checkTableName(table *schema.NamedTable, relname string) error {
	if relname != table.Name() {
		return fmt.Errorf("%w: %s", ErrUnknownTable, relname)
	}
	return nil
}

func digestInsert(ds *changeset.DiffSet, table *schema.NamedTable, stmt *pgquery.InsertStmt) error {
	if stmt.Relation == nil {
		return fmt.Errorf("%w: INSERT with no target table", ErrUnsupportedStmt)
	}
	if err := checkTableName(table, stmt.Relation.Relname); err != nil {
		return err
	}

	cols := make([]string, 0, len(stmt.Cols))
	for _, c := range stmt.Cols {
		target := c.GetResTarget()
		if target == nil {
			return fmt.Errorf("%w: malformed column list", ErrUnsupportedStmt)
		}
		cols = append(cols, target.Name)
	}

	selectStmt := stmt.SelectStmt.GetSelectStmt()
	if selectStmt == nil || len(selectStmt.ValuesLists) != 1 {
		return fmt.Errorf("%w: INSERT must supply exactly one VALUES row", ErrUnsupportedStmt)
	}
	valueNodes := selectStmt.ValuesLists[0].GetList().Items
	if len(valueNodes) != len(cols) {
		return fmt.Errorf("%w: column/value count mismatch", ErrBadLiteral)
	}

	b := changeset.NewInsert()
	for i, colName := range cols {
		idx := table.ColumnIndex(colName)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, colName)
		}
		v, err := literalValue(valueNodes[i])
		if err != nil {
			return err
		}
		b.Set(idx, v)
	}
	return ds.Insert(table.Table, b)
}

func digestUpdate(ds *changeset.DiffSet, table *schema.NamedTable, stmt *pgquery.UpdateStmt) error {
	if stmt.Relation == nil {
		return fmt.Errorf("%w: UPDATE with no target table", ErrUnsupportedStmt)
	}
	if err := checkTableName(table, stmt.Relation.Relname); err != nil {
		return err
	}

	pkValues, err := pkEqualities(table, stmt.WhereClause)
	if err != nil {
		return err
	}

	b := changeset.NewUpdate()
	for idx, v := range pkValues {
		b.Set(idx, v, v)
	}
	for _, target := range stmt.TargetList {
		rt := target.GetResTarget()
		if rt == nil {
			return fmt.Errorf("%w: malformed SET list", ErrUnsupportedStmt)
		}
		idx := table.ColumnIndex(rt.Name)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, rt.Name)
		}
		v, err := literalValue(rt.Val)
		if err != nil {
			return err
		}
		b.Set(idx, nil, v)
	}
	return ds.Update(table.Table, b)
}

func digestDelete(ds *changeset.DiffSet, table *schema.NamedTable, stmt *pgquery.DeleteStmt) error {
	if stmt.Relation == nil {
		return fmt.Errorf("%w: DELETE with no target table", ErrUnsupportedStmt)
	}
	if err := checkTableName(table, stmt.Relation.Relname); err != nil {
		return err
	}

	pkValues, err := pkEqualities(table, stmt.WhereClause)
	if err != nil {
		return err
	}
	b := changeset.NewDelete()
	for idx, v := range pkValues {
		b.Set(idx, v)
	}
	return ds.Delete(table.Table, b)
}

// pkEqualities walks a WHERE clause that must be a conjunction of
// `column = literal` equalities over exactly the table's PK columns,
// returning a map of column index to literal value.
func pkEqualities(table *schema.NamedTable, where *pgquery.Node) (map[int]*value.Value, error) {
	if where == nil {
		return nil, errNonPKWhereCondition
	}

	out := make(map[int]*value.Value)
	var walk func(n *pgquery.Node) error
	walk = func(n *pgquery.Node) error {
		boolExpr := n.GetBoolExpr()
		if boolExpr != nil {
			if boolExpr.Boolop != pgquery.BoolExprType_AND_EXPR {
				return errNonPKWhereCondition
			}
			for _, arg := range boolExpr.Args {
				if err := walk(arg); err != nil {
					return err
				}
			}
			return nil
		}

		aExpr := n.GetAExpr()
		if aExpr == nil || aExpr.Kind != pgquery.A_Expr_Kind_AEXPR_OP {
			return errNonPKWhereCondition
		}
		if len(aExpr.Name) != 1 || aExpr.Name[0].GetString_().Str != "=" {
			return errNonPKWhereCondition
		}
		colRef := aExpr.Lexpr.GetColumnRef()
		if colRef == nil || len(colRef.Fields) == 0 {
			return errNonPKWhereCondition
		}
		colName := colRef.Fields[len(colRef.Fields)-1].GetString_().Str
		idx := table.ColumnIndex(colName)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, colName)
		}
		v, err := literalValue(aExpr.Rexpr)
		if err != nil {
			return err
		}
		out[idx] = v
		return nil
	}
	if err := walk(where); err != nil {
		return nil, err
	}

	pkSet := make(map[int]bool)
	for _, i := range table.PKIndices() {
		pkSet[i] = true
	}
	if len(out) != len(pkSet) {
		return nil, errNonPKWhereCondition
	}
	for idx := range out {
		if !pkSet[idx] {
			return nil, errNonPKWhereCondition
		}
	}
	return out, nil
}

// literalValue converts a literal AST node into a concrete Value. It
// accepts decimal integers, decimal/exponential reals, single-quoted
// text (doubled-quote escaping already resolved by the parser), NULL,
// and hex blob literals (X'...', surfaced by the grammar as bit-string
// constants).
func literalValue(n *pgquery.Node) (*value.Value, error) {
	constant := n.GetAConst()
	if constant == nil {
		return nil, fmt.Errorf("%w: expected a literal", ErrBadLiteral)
	}
	if constant.GetIsnull() {
		return value.NewNull(), nil
	}
	switch v := constant.Val.(type) {
	case *pgquery.A_Const_Ival:
		return value.NewInteger(int64(v.Ival.Ival)), nil
	case *pgquery.A_Const_Fval:
		f, err := strconv.ParseFloat(v.Fval.Fval, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadLiteral, err)
		}
		return value.NewReal(f), nil
	case *pgquery.A_Const_Str:
		return value.NewText([]byte(v.Str.Str)), nil
	case *pgquery.A_Const_Bsval:
		raw := strings.TrimPrefix(v.Bsval.Bsval, "x")
		raw = strings.TrimPrefix(raw, "X")
		b, err := hexToBytes(raw)
		if err != nil {
			return nil, err
		}
		return value.NewBlob(b), nil
	default:
		return nil, fmt.Errorf("%w: unsupported literal kind", ErrBadLiteral)
	}
}

func hexToBytes(hex string) ([]byte, error) {
	if len(hex)%2 != 0 {
		return nil, fmt.Errorf("%w: odd-length hex blob literal", ErrBadLiteral)
	}
	out := make([]byte, len(hex)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexDigit(hex[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexDigit(hex[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("%w: invalid hex digit %q", ErrBadLiteral, c)
	}
}
