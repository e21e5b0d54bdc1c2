package loader

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ToText converts a record value to the text stored in a column. nil stays
// nil and becomes SQL NULL. Numbers and nested JSON keep their JSON text,
// booleans become "true" or "false".
func ToText(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case json.Number:
		return string(val)
	case json.RawMessage:
		if val == nil {
			return nil
		}
		return string(val)
	case []byte:
		if val == nil {
			return nil
		}
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
