// Package orm exposes a compiled schema together with the databases its
// entities live in.
package orm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/schema"
)

// ErrUnknownRole is returned for roles missing from the schema.
var ErrUnknownRole = errors.New("unknown role")

// Record is a row keyed by entity field.
type Record map[string]any

// ORM ties a compiled schema to a dbal.Provider.
type ORM struct {
	dbs    dbal.Provider
	schema schema.Schema
}

// New creates an ORM.
func New(dbs dbal.Provider, s schema.Schema) *ORM {
	return &ORM{dbs: dbs, schema: s}
}

// Schema returns the compiled schema.
func (o *ORM) Schema() schema.Schema {
	return o.schema
}

// Entity returns the compiled entity of role.
func (o *ORM) Entity(role string) (*schema.Entity, error) {
	e, ok := o.schema[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return e, nil
}

// Database returns the database role is stored in.
func (o *ORM) Database(role string) (*dbal.Database, error) {
	e, err := o.Entity(role)
	if err != nil {
		return nil, err
	}
	return o.dbs.Database(e.Database)
}

// Table returns the table role is stored in, prefix included.
func (o *ORM) Table(role string) (string, error) {
	e, err := o.Entity(role)
	if err != nil {
		return "", err
	}
	return e.Table, nil
}

// Select loads the records of role matching where, a map of field to value
// compared for equality. Entities sharing a table are filtered by their
// discriminator.
func (o *ORM) Select(ctx context.Context, role string, where map[string]any) ([]Record, error) {
	e, err := o.Entity(role)
	if err != nil {
		return nil, err
	}
	db, err := o.dbs.Database(e.Database)
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(e.Columns))
	for field := range e.Columns {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	cols := make([]string, len(fields))
	for i, field := range fields {
		cols[i] = quote(db.Dialect, e.Columns[field])
	}

	var (
		conds []string
		args  []any
	)
	whereFields := make([]string, 0, len(where))
	for field := range where {
		whereFields = append(whereFields, field)
	}
	sort.Strings(whereFields)
	for _, field := range whereFields {
		col, ok := e.Columns[field]
		if !ok {
			return nil, fmt.Errorf("entity %q has no field %q", role, field)
		}
		args = append(args, where[field])
		conds = append(conds, quote(db.Dialect, col)+" = "+placeholder(db.Dialect, len(args)))
	}
	if e.Parent != "" && e.Discriminator != "" {
		args = append(args, role)
		conds = append(conds, quote(db.Dialect, e.Discriminator)+" = "+placeholder(db.Dialect, len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quote(db.Dialect, e.Table))
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", role, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		values := make([]any, len(fields))
		ptrs := make([]any, len(fields))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(Record, len(fields))
		for i, field := range fields {
			v, err := Typecast(e.Typecast[field], values[i])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", role, field, err)
			}
			rec[field] = v
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func quote(dialect, ident string) string {
	if dialect == dbal.DialectMySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

func placeholder(dialect string, n int) string {
	if dialect == dbal.DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Typecast converts a scanned value following a cast rule of the schema.
// NULL stays nil.
func Typecast(rule string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch rule {
	case schema.CastInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			return int64(x), nil
		case string:
			return strconv.ParseInt(x, 10, 64)
		}
	case schema.CastFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case string:
			return strconv.ParseFloat(x, 64)
		}
	case schema.CastBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case string:
			return strconv.ParseBool(x)
		}
	case schema.CastDatetime:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case string:
			for _, layout := range datetimeLayouts {
				if t, err := time.Parse(layout, x); err == nil {
					return t, nil
				}
			}
			return nil, fmt.Errorf("cannot parse %q as datetime", x)
		}
	case schema.CastJSON:
		if s, ok := v.(string); ok {
			var out any
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil, err
			}
			return out, nil
		}
	case schema.CastString, "":
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	}
	return v, nil
}
