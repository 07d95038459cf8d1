package query

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rebeliceyang/pglens/internal/jsonb"
)

const (
	// NullText is shown for SQL NULL
	NullText = "NULL"
	// UnsupportedText is shown for cells that cannot be decoded
	UnsupportedText = "<unsupported>"
)

// DecodeCell decodes one raw column value into display text. It never
// fails: values that cannot be decoded render as UnsupportedText.
func DecodeCell(m *pgtype.Map, fd pgconn.FieldDescription, raw []byte) string {
	if raw == nil {
		return NullText
	}

	dt, ok := m.TypeForOID(fd.DataTypeOID)
	if !ok {
		// Unknown types arrive as text unless binary was requested
		if fd.Format == pgtype.TextFormatCode {
			return string(raw)
		}
		return UnsupportedText
	}

	v, err := dt.Codec.DecodeValue(m, fd.DataTypeOID, fd.Format, raw)
	if err != nil {
		return UnsupportedText
	}
	return FormatValue(v, dt.Name)
}

// FormatValue converts a decoded value into display text, using the
// PostgreSQL type name for types whose Go shape is ambiguous
func FormatValue(v any, typeName string) string {
	if v == nil {
		return NullText
	}

	switch typeName {
	case "json", "jsonb":
		s, err := jsonb.Compact(v)
		if err != nil {
			return UnsupportedText
		}
		return s
	case "uuid":
		if b, ok := v.([16]byte); ok {
			return uuid.UUID(b).String()
		}
	case "bytea":
		if b, ok := v.([]byte); ok {
			return `\x` + hex.EncodeToString(b)
		}
	case "date":
		if t, ok := v.(time.Time); ok {
			return t.Format("2006-01-02")
		}
	case "timestamptz":
		if t, ok := v.(time.Time); ok {
			return t.Format("2006-01-02 15:04:05.999999-07:00")
		}
	}

	return formatGoValue(v)
}

func formatGoValue(v any) string {
	switch x := v.(type) {
	case nil:
		return NullText
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return x.Format("2006-01-02 15:04:05.999999")
	case [16]byte:
		return uuid.UUID(x).String()
	case []any:
		parts := make([]string, len(x))
		for i, elem := range x {
			parts[i] = formatGoValue(elem)
		}
		return "{" + strings.Join(parts, ",") + "}"
	case map[string]any:
		s, err := jsonb.Compact(x)
		if err != nil {
			return UnsupportedText
		}
		return s
	case driver.Valuer:
		val, err := x.Value()
		if err != nil {
			return UnsupportedText
		}
		if val == nil {
			return NullText
		}
		return formatGoValue(val)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
