package schema

import (
	"fmt"

	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"

	"github.com/bcomnes/cyclekit/pkg/dbal"
)

// Abstract column types.
const (
	TypePrimary    = "primary"
	TypeBigPrimary = "bigPrimary"
	TypeInteger    = "integer"
	TypeBigInteger = "bigInteger"
	TypeString     = "string"
	TypeText       = "text"
	TypeBoolean    = "boolean"
	TypeFloat      = "float"
	TypeDouble     = "double"
	TypeDecimal    = "decimal"
	TypeDatetime   = "datetime"
	TypeDate       = "date"
	TypeTime       = "time"
	TypeJSON       = "json"
	TypeUUID       = "uuid"
	TypeBinary     = "binary"
)

// Typecast rules stored in the compiled schema.
const (
	CastInt      = "int"
	CastFloat    = "float"
	CastBool     = "bool"
	CastDatetime = "datetime"
	CastJSON     = "json"
	CastString   = "string"
)

var casts = map[string]string{
	TypePrimary:    CastInt,
	TypeBigPrimary: CastInt,
	TypeInteger:    CastInt,
	TypeBigInteger: CastInt,
	TypeString:     CastString,
	TypeText:       CastString,
	TypeBoolean:    CastBool,
	TypeFloat:      CastFloat,
	TypeDouble:     CastFloat,
	TypeDecimal:    CastFloat,
	TypeDatetime:   CastDatetime,
	TypeDate:       CastDatetime,
	TypeTime:       CastString,
	TypeJSON:       CastJSON,
	TypeUUID:       CastString,
	TypeBinary:     CastString,
}

// castOf returns the typecast rule for an abstract type.
func castOf(t string) (string, error) {
	base, _, err := abstractType(t)
	if err != nil {
		return "", err
	}
	cast, ok := casts[base]
	if !ok {
		return "", fmt.Errorf("unknown column type %q", t)
	}
	return cast, nil
}

func isPrimaryType(base string) bool {
	return base == TypePrimary || base == TypeBigPrimary
}

// keyType is the type of a column referencing a primary key of type t.
func keyType(t string) string {
	base, _, _ := abstractType(t)
	switch base {
	case TypePrimary:
		return TypeInteger
	case TypeBigPrimary:
		return TypeBigInteger
	}
	return t
}

// columnType renders an abstract column type for dialect.
func columnType(dialect string, col Column) (schema.Type, []schema.Attr, error) {
	base, size, err := abstractType(col.Type)
	if err != nil {
		return nil, nil, err
	}
	if col.Size > 0 {
		size = col.Size
	}
	if size == 0 {
		size = 255
	}
	switch dialect {
	case dbal.DialectSQLite:
		return sqliteType(base)
	case dbal.DialectPostgres:
		return postgresType(base, size)
	case dbal.DialectMySQL:
		return mysqlType(base, size)
	}
	return nil, nil, fmt.Errorf("dialect %q not supported", dialect)
}

// sqliteType leaves auto increment to the rowid of INTEGER PRIMARY KEY.
func sqliteType(base string) (schema.Type, []schema.Attr, error) {
	switch base {
	case TypePrimary, TypeBigPrimary, TypeInteger, TypeBigInteger:
		return &schema.IntegerType{T: "integer"}, nil, nil
	case TypeString, TypeText, TypeUUID, TypeTime:
		return &schema.StringType{T: "text"}, nil, nil
	case TypeBoolean:
		return &schema.BoolType{T: "boolean"}, nil, nil
	case TypeFloat, TypeDouble:
		return &schema.FloatType{T: "real"}, nil, nil
	case TypeDecimal:
		return &schema.DecimalType{T: "numeric"}, nil, nil
	case TypeDatetime:
		return &schema.TimeType{T: "datetime"}, nil, nil
	case TypeDate:
		return &schema.TimeType{T: "date"}, nil, nil
	case TypeJSON:
		return &schema.JSONType{T: "json"}, nil, nil
	case TypeBinary:
		return &schema.BinaryType{T: "blob"}, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown column type %q", base)
}

func postgresType(base string, size int) (schema.Type, []schema.Attr, error) {
	switch base {
	case TypePrimary:
		return &postgres.SerialType{T: "serial"}, nil, nil
	case TypeBigPrimary:
		return &postgres.SerialType{T: "bigserial"}, nil, nil
	case TypeInteger:
		return &schema.IntegerType{T: "integer"}, nil, nil
	case TypeBigInteger:
		return &schema.IntegerType{T: "bigint"}, nil, nil
	case TypeString:
		return &schema.StringType{T: "character varying", Size: size}, nil, nil
	case TypeText:
		return &schema.StringType{T: "text"}, nil, nil
	case TypeUUID:
		return &schema.UUIDType{T: "uuid"}, nil, nil
	case TypeTime:
		return &schema.TimeType{T: "time without time zone"}, nil, nil
	case TypeBoolean:
		return &schema.BoolType{T: "boolean"}, nil, nil
	case TypeFloat:
		return &schema.FloatType{T: "real"}, nil, nil
	case TypeDouble:
		return &schema.FloatType{T: "double precision"}, nil, nil
	case TypeDecimal:
		return &schema.DecimalType{T: "numeric"}, nil, nil
	case TypeDatetime:
		return &schema.TimeType{T: "timestamp without time zone"}, nil, nil
	case TypeDate:
		return &schema.TimeType{T: "date"}, nil, nil
	case TypeJSON:
		return &schema.JSONType{T: "jsonb"}, nil, nil
	case TypeBinary:
		return &schema.BinaryType{T: "bytea"}, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown column type %q", base)
}

func mysqlType(base string, size int) (schema.Type, []schema.Attr, error) {
	switch base {
	case TypePrimary:
		return &schema.IntegerType{T: "int"}, []schema.Attr{&mysql.AutoIncrement{}}, nil
	case TypeBigPrimary:
		return &schema.IntegerType{T: "bigint"}, []schema.Attr{&mysql.AutoIncrement{}}, nil
	case TypeInteger:
		return &schema.IntegerType{T: "int"}, nil, nil
	case TypeBigInteger:
		return &schema.IntegerType{T: "bigint"}, nil, nil
	case TypeString:
		return &schema.StringType{T: "varchar", Size: size}, nil, nil
	case TypeText:
		return &schema.StringType{T: "text"}, nil, nil
	case TypeUUID:
		return &schema.StringType{T: "char", Size: 36}, nil, nil
	case TypeTime:
		return &schema.TimeType{T: "time"}, nil, nil
	case TypeBoolean:
		return &schema.BoolType{T: "bool"}, nil, nil
	case TypeFloat:
		return &schema.FloatType{T: "float"}, nil, nil
	case TypeDouble:
		return &schema.FloatType{T: "double"}, nil, nil
	case TypeDecimal:
		return &schema.DecimalType{T: "decimal", Precision: 10, Scale: 2}, nil, nil
	case TypeDatetime:
		return &schema.TimeType{T: "datetime"}, nil, nil
	case TypeDate:
		return &schema.TimeType{T: "date"}, nil, nil
	case TypeJSON:
		return &schema.JSONType{T: "json"}, nil, nil
	case TypeBinary:
		return &schema.BinaryType{T: "blob"}, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown column type %q", base)
}
