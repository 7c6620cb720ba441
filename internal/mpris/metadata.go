package mpris

import (
	"time"

	"github.com/godbus/dbus/v5"
)

// Metadata is the subset of xesam/mpris metadata lyricer uses.
type Metadata struct {
	TrackID string
	URL     string
	Title   string
	Artists []string
	Album   string
	// zero when the player does not report it
	Length time.Duration
}

// Identity changes whenever the player moves to another track. No
// normalization is applied.
func (m *Metadata) Identity() string {
	return m.URL + m.Title
}

func parseMetadata(values map[string]dbus.Variant) *Metadata {
	meta := &Metadata{
		TrackID: extractString(values, "mpris:trackid"),
		URL:     extractString(values, "xesam:url"),
		Title:   extractString(values, "xesam:title"),
		Artists: extractStrings(values, "xesam:artist"),
		Album:   extractString(values, "xesam:album"),
	}

	if v, ok := values["mpris:length"]; ok {
		if micros, ok := microseconds(v.Value()); ok && micros > 0 {
			meta.Length = time.Duration(micros) * time.Microsecond
		}
	}

	return meta
}

func extractString(values map[string]dbus.Variant, key string) string {
	variant, exists := values[key]
	if !exists {
		return ""
	}

	switch typed := variant.Value().(type) {
	case string:
		return typed
	case dbus.ObjectPath:
		return string(typed)
	case []string:
		if len(typed) > 0 {
			return typed[0]
		}
	}
	return ""
}

func extractStrings(values map[string]dbus.Variant, key string) []string {
	variant, exists := values[key]
	if !exists {
		return nil
	}

	switch typed := variant.Value().(type) {
	case []string:
		return typed
	case string:
		if typed != "" {
			return []string{typed}
		}
	case []interface{}:
		var out []string
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// players disagree on the integer type used for microsecond values
func microseconds(value interface{}) (int64, bool) {
	switch typed := value.(type) {
	case int64:
		return typed, true
	case uint64:
		return int64(typed), true
	case int32:
		return int64(typed), true
	case uint32:
		return int64(typed), true
	case float64:
		return int64(typed), true
	default:
		return 0, false
	}
}
