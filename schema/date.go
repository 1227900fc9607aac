package schema

import (
	"fmt"
	"time"
)

// isoMillis is the wire layout for DateFormatISO: UTC with millisecond
// precision, matching what JavaScript clients of the same tables write.
const isoMillis = "2006-01-02T15:04:05.000Z"

// buildDate installs the Date kind: one converter pair selected by the
// declared wire format, plus a validator that rejects unparsable dates on
// both put and update-set regardless of that format.
func buildDate(n *node) error {
	format := n.field.DateFormat
	if format == "" {
		format = DateFormatISO
	}

	switch format {
	case DateFormatISO:
		n.converters = append(n.converters, Converter{
			ToWire:   dateToISO,
			FromWire: dateFromISO,
		})
	case DateFormatTimestamp:
		n.converters = append(n.converters, Converter{
			ToWire:   dateToMillis,
			FromWire: dateFromMillis,
		})
	default:
		return fmt.Errorf("schema: field %q has unknown dateFormat %q", n.name, format)
	}

	n.putRules = append(n.putRules, func(n *node, value any) []string {
		if s, ok := value.(string); ok && s == "" {
			return nil // empty maps to absent on the wire, not an error
		}
		if _, ok := asTime(value); !ok {
			return []string{fmt.Sprintf("field %q is not a valid date", n.name)}
		}
		return nil
	})
	return nil
}

// asTime coerces an application date value. Accepted shapes: time.Time,
// *time.Time, and RFC 3339 strings.
func asTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		if v == "" {
			return time.Time{}, false
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
		if t, err := time.Parse(isoMillis, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dateToISO(value any) any {
	t, ok := asTime(value)
	if !ok {
		return nil
	}
	return t.UTC().Format(isoMillis)
}

func dateFromISO(value any) any {
	s, ok := value.(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(isoMillis, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return nil
		}
	}
	return t.UTC()
}

func dateToMillis(value any) any {
	t, ok := asTime(value)
	if !ok {
		return nil
	}
	return t.UnixMilli()
}

func dateFromMillis(value any) any {
	switch v := value.(type) {
	case int64:
		return time.UnixMilli(v).UTC()
	case int:
		return time.UnixMilli(int64(v)).UTC()
	case float64:
		return time.UnixMilli(int64(v)).UTC()
	}
	return nil
}
