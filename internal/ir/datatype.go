package ir

import (
	"slices"
	"strings"
)

// DataType is the closed enumeration of column types a ColumnDefinition
// may carry. Dialects map each one to a native type name.
type DataType string

const (
	TypeChar      DataType = "CHAR"
	TypeVarchar   DataType = "VARCHAR"
	TypeText      DataType = "TEXT"
	TypeBoolean   DataType = "BOOLEAN"
	TypeDate      DataType = "DATE"
	TypeTime      DataType = "TIME"
	TypeDatetime  DataType = "DATETIME"
	TypeTimestamp DataType = "TIMESTAMP"
	TypeJSON      DataType = "JSON"
	TypeJSONB     DataType = "JSONB"
	TypeSmallint  DataType = "SMALLINT"
	TypeInteger   DataType = "INTEGER"
	TypeBigint    DataType = "BIGINT"
	TypeDecimal   DataType = "DECIMAL"
	TypeNumeric   DataType = "NUMERIC"
	TypeReal      DataType = "REAL"
	TypeDouble    DataType = "DOUBLE"
	TypeSerial    DataType = "SERIAL"
	TypeBigserial DataType = "BIGSERIAL"
	TypeUUID      DataType = "UUID"
)

// Family partitions DataTypes by the attributes and literals they accept.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyString
	FamilyBoolean
	FamilyDateTime
	FamilyJSON
	FamilyInteger
	FamilyBigInteger
	FamilyDecimal
	FamilySerial
	FamilyUUID
)

// String returns the lowercase family name.
func (f Family) String() string {
	switch f {
	case FamilyString:
		return "string"
	case FamilyBoolean:
		return "boolean"
	case FamilyDateTime:
		return "date/time"
	case FamilyJSON:
		return "JSON"
	case FamilyInteger:
		return "integer"
	case FamilyBigInteger:
		return "big-integer"
	case FamilyDecimal:
		return "decimal"
	case FamilySerial:
		return "serial"
	case FamilyUUID:
		return "UUID"
	default:
		return "unknown"
	}
}

var dataTypeFamilies = map[DataType]Family{
	TypeChar:      FamilyString,
	TypeVarchar:   FamilyString,
	TypeText:      FamilyString,
	TypeBoolean:   FamilyBoolean,
	TypeDate:      FamilyDateTime,
	TypeTime:      FamilyDateTime,
	TypeDatetime:  FamilyDateTime,
	TypeTimestamp: FamilyDateTime,
	TypeJSON:      FamilyJSON,
	TypeJSONB:     FamilyJSON,
	TypeSmallint:  FamilyInteger,
	TypeInteger:   FamilyInteger,
	TypeBigint:    FamilyBigInteger,
	TypeDecimal:   FamilyDecimal,
	TypeNumeric:   FamilyDecimal,
	TypeReal:      FamilyDecimal,
	TypeDouble:    FamilyDecimal,
	TypeSerial:    FamilySerial,
	TypeBigserial: FamilySerial,
	TypeUUID:      FamilyUUID,
}

var dataTypes = []DataType{
	TypeChar, TypeVarchar, TypeText,
	TypeBoolean,
	TypeDate, TypeTime, TypeDatetime, TypeTimestamp,
	TypeJSON, TypeJSONB,
	TypeSmallint, TypeInteger,
	TypeBigint,
	TypeDecimal, TypeNumeric, TypeReal, TypeDouble,
	TypeSerial, TypeBigserial,
	TypeUUID,
}

// DataTypes returns the catalog in declaration order.
func DataTypes() []DataType {
	return slices.Clone(dataTypes)
}

// ParseDataType resolves a type name case-insensitively.
func ParseDataType(name string) (DataType, bool) {
	t := DataType(strings.ToUpper(name))
	_, ok := dataTypeFamilies[t]
	return t, ok
}

// Family returns the family of t, or FamilyUnknown for names outside the
// catalog.
func (t DataType) Family() Family {
	return dataTypeFamilies[t]
}

// AcceptsLength reports whether a length attribute is legal for t. TEXT is
// unbounded and takes none.
func (t DataType) AcceptsLength() bool {
	return t == TypeChar || t == TypeVarchar
}

// AcceptsPrecision reports whether precision and scale are legal for t.
// REAL and DOUBLE are binary floating point and take neither.
func (t DataType) AcceptsPrecision() bool {
	return t == TypeDecimal || t == TypeNumeric
}
