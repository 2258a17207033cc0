package querysql

import (
	"fmt"
	"regexp"
	"strings"
)

// validIdentifier matches a table or column name, optionally qualified by
// a table alias ("n.key").
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Compile renders q as parameterized SQL.
// Returns (sql, params, error).
func Compile(q Select) (string, []any, error) {
	if len(q.OrderBy) == 0 {
		return "", nil, fmt.Errorf("query on %s has no ORDER BY", q.From)
	}
	var b builder
	if err := b.selectStmt(q, true); err != nil {
		return "", nil, err
	}
	return b.sql.String(), b.params, nil
}

// EscapeLike escapes s for use inside a LIKE pattern with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type builder struct {
	sql    strings.Builder
	params []any
}

func (b *builder) selectStmt(q Select, top bool) error {
	if err := checkIdent(q.From); err != nil {
		return err
	}
	if q.Alias != "" {
		if err := checkIdent(q.Alias); err != nil {
			return err
		}
	}

	b.sql.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		b.sql.WriteString("1")
	}
	for i, c := range q.Columns {
		if err := checkIdent(c); err != nil {
			return err
		}
		if i > 0 {
			b.sql.WriteString(", ")
		}
		b.sql.WriteString(c)
	}

	b.sql.WriteString(" FROM ")
	b.sql.WriteString(q.From)
	if q.Alias != "" {
		b.sql.WriteString(" ")
		b.sql.WriteString(q.Alias)
	}

	if q.Where != nil {
		b.sql.WriteString(" WHERE ")
		if err := b.predicate(q.Where); err != nil {
			return fmt.Errorf("compile filter: %w", err)
		}
	}

	if !top {
		return nil
	}

	b.sql.WriteString(" ORDER BY ")
	for i, o := range q.OrderBy {
		if err := checkIdent(o.Field); err != nil {
			return err
		}
		if i > 0 {
			b.sql.WriteString(", ")
		}
		b.sql.WriteString(o.Field)
		if o.Desc {
			b.sql.WriteString(" DESC")
		} else {
			b.sql.WriteString(" ASC")
		}
	}

	if q.Limit > 0 {
		b.sql.WriteString(" LIMIT ?")
		b.params = append(b.params, q.Limit)
	}
	return nil
}

func (b *builder) predicate(p Predicate) error {
	switch pred := p.(type) {
	case Equals:
		return b.binary(pred.Field, "=", pred.Value)

	case ColumnEquals:
		if err := checkIdent(pred.Left); err != nil {
			return err
		}
		if err := checkIdent(pred.Right); err != nil {
			return err
		}
		fmt.Fprintf(&b.sql, "%s = %s", pred.Left, pred.Right)
		return nil

	case In:
		if err := checkIdent(pred.Field); err != nil {
			return err
		}
		if len(pred.Values) == 0 {
			return fmt.Errorf("empty IN list for %s", pred.Field)
		}
		b.sql.WriteString(pred.Field)
		b.sql.WriteString(" IN (")
		b.sql.WriteString(strings.TrimSuffix(strings.Repeat("?, ", len(pred.Values)), ", "))
		b.sql.WriteString(")")
		b.params = append(b.params, pred.Values...)
		return nil

	case Compare:
		switch pred.Op {
		case OpGE, OpLE, OpGT, OpLT:
		default:
			return fmt.Errorf("unsupported operator %q", pred.Op)
		}
		return b.binary(pred.Field, string(pred.Op), pred.Value)

	case Contains:
		if err := checkIdent(pred.Field); err != nil {
			return err
		}
		fmt.Fprintf(&b.sql, `%s LIKE ? ESCAPE '\'`, pred.Field)
		b.params = append(b.params, "%"+EscapeLike(pred.Substring)+"%")
		return nil

	case Exists:
		b.sql.WriteString("EXISTS (")
		if err := b.selectStmt(pred.Sub, false); err != nil {
			return err
		}
		b.sql.WriteString(")")
		return nil

	case And:
		if len(pred.Predicates) == 0 {
			b.sql.WriteString("1 = 1")
			return nil
		}
		for i, sub := range pred.Predicates {
			if i > 0 {
				b.sql.WriteString(" AND ")
			}
			if err := b.predicate(sub); err != nil {
				return err
			}
		}
		return nil

	case nil:
		b.sql.WriteString("1 = 1")
		return nil

	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (b *builder) binary(field, op string, value any) error {
	if err := checkIdent(field); err != nil {
		return err
	}
	fmt.Fprintf(&b.sql, "%s %s ?", field, op)
	b.params = append(b.params, value)
	return nil
}

func checkIdent(name string) error {
	if !validIdentifier.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}
