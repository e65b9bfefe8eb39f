package sqlite

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"
)

var timeType = reflect.TypeOf(time.Time{})

// Scanner copies result columns into struct fields matched by `db` tag,
// exact name or snake_case name.
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

// ScanRowToStruct reads the next row into dest. It returns sql.ErrNoRows
// when the result set is exhausted.
func (s *Scanner) ScanRowToStruct(rows *sql.Rows, dest any) error {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}

		return sql.ErrNoRows
	}

	return s.scanCurrent(rows, dest)
}

// ScanRowsToSlice appends every remaining row to the slice dest points at.
func (s *Scanner) ScanRowsToSlice(rows *sql.Rows, dest any) error {
	destValue := reflect.ValueOf(dest)

	if destValue.Kind() != reflect.Ptr || destValue.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dest must be a pointer to slice")
	}

	sliceValue := destValue.Elem()
	elemType := sliceValue.Type().Elem()

	if elemType.Kind() != reflect.Struct {
		return fmt.Errorf("slice elements must be structs")
	}

	for rows.Next() {
		elemValue := reflect.New(elemType)

		if err := s.scanCurrent(rows, elemValue.Interface()); err != nil {
			return err
		}

		sliceValue.Set(reflect.Append(sliceValue, elemValue.Elem()))
	}

	return rows.Err()
}

func (s *Scanner) scanCurrent(rows *sql.Rows, dest any) error {
	destValue := reflect.ValueOf(dest)

	if destValue.Kind() != reflect.Ptr || destValue.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a pointer to struct")
	}

	destElem := destValue.Elem()

	columns, err := rows.Columns()

	if err != nil {
		return err
	}

	scanArgs := make([]any, len(columns))

	for i := range scanArgs {
		scanArgs[i] = new(any)
	}

	if err := rows.Scan(scanArgs...); err != nil {
		return err
	}

	for i, colName := range columns {
		field, ok := s.findStructField(destElem.Type(), colName)

		if !ok {
			continue
		}

		val := *(scanArgs[i].(*any))

		if err := s.setFieldValue(destElem.FieldByIndex(field.Index), val); err != nil {
			return fmt.Errorf("column %s: %w", colName, err)
		}
	}

	return nil
}

func (s *Scanner) findStructField(structType reflect.Type, colName string) (reflect.StructField, bool) {
	colNameLower := strings.ToLower(colName)

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if tag := field.Tag.Get("db"); tag != "" && strings.ToLower(tag) == colNameLower {
			return field, true
		}
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		name := strings.ToLower(field.Name)

		if name == colNameLower || s.camelToSnake(field.Name) == colNameLower {
			return field, true
		}
	}

	return reflect.StructField{}, false
}

func (s *Scanner) camelToSnake(camel string) string {
	var result []rune

	for i, r := range camel {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '_')
		}

		result = append(result, unicode.ToLower(r))
	}

	return string(result)
}

func (s *Scanner) setFieldValue(field reflect.Value, val any) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	if val == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	if field.Kind() == reflect.Ptr {
		elem := reflect.New(field.Type().Elem())

		if err := s.setFieldValue(elem.Elem(), val); err != nil {
			return err
		}

		field.Set(elem)
		return nil
	}

	valValue := reflect.ValueOf(val)

	if valValue.Type().AssignableTo(field.Type()) {
		field.Set(valValue)
		return nil
	}

	if field.Type() == timeType {
		return s.setTime(field, val)
	}

	switch field.Kind() {
	case reflect.String:
		switch v := val.(type) {
		case string:
			field.SetString(v)
		case []byte:
			field.SetString(string(v))
		default:
			return fmt.Errorf("cannot assign %T to string", val)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, ok := val.(int64)

		if !ok {
			return fmt.Errorf("cannot assign %T to %s", val, field.Type())
		}

		field.SetInt(v)
	case reflect.Bool:
		switch v := val.(type) {
		case bool:
			field.SetBool(v)
		case int64:
			field.SetBool(v != 0)
		default:
			return fmt.Errorf("cannot assign %T to bool", val)
		}
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}

	return nil
}

func (s *Scanner) setTime(field reflect.Value, val any) error {
	var str string

	switch v := val.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot assign %T to time.Time", val)
	}

	for _, layout := range sqlite3TimeLayouts {
		if parsed, err := time.Parse(layout, str); err == nil {
			field.Set(reflect.ValueOf(parsed.UTC()))
			return nil
		}
	}

	return fmt.Errorf("unparseable time %q", str)
}

var sqlite3TimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}
