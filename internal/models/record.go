package models

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Extras holds stored JSON members a model does not declare. Other writers of
// the same collections use their own field names; those members are carried
// through every read-modify-write unchanged.
type Extras map[string]json.RawMessage

type lenientKind int

const (
	lenientTime lenientKind = iota + 1
	lenientGrade
)

// decodeRecord unmarshals a JSON object into dst, a pointer to a struct
// without custom JSON methods. Members named in lenient are normalised from
// legacy encodings first. Declared members that still cannot be decoded fall
// back to their zero value and are kept in the returned extras together with
// the undeclared ones.
func decodeRecord(data []byte, dst any, lenient map[string]lenientKind) (Extras, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}

	extras := Extras{}
	for name, kind := range lenient {
		raw, ok := members[name]
		if !ok {
			continue
		}
		fixed, ok := normaliseMember(kind, raw)
		if !ok {
			extras[name] = raw
			delete(members, name)
			continue
		}
		members[name] = fixed
	}

	rt := reflect.TypeOf(dst).Elem()
	known := jsonFields(rt)
	for name, raw := range members {
		if _, ok := known[name]; !ok {
			extras[name] = raw
			delete(members, name)
		}
	}

	body, err := json.Marshal(members)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		// isolate the members with the wrong shape and decode the rest
		for name, raw := range members {
			single, _ := json.Marshal(map[string]json.RawMessage{name: raw})
			if json.Unmarshal(single, reflect.New(rt).Interface()) != nil {
				extras[name] = raw
				delete(members, name)
			}
		}
		reflect.ValueOf(dst).Elem().Set(reflect.Zero(rt))
		body, err = json.Marshal(members)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, dst); err != nil {
			return nil, err
		}
	}

	if len(extras) == 0 {
		return nil, nil
	}
	return extras, nil
}

// encodeRecord marshals src and merges back extras whose names src did not
// emit itself.
func encodeRecord(src any, extras Extras) ([]byte, error) {
	body, err := json.Marshal(src)
	if err != nil || len(extras) == 0 {
		return body, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return nil, err
	}
	for name, raw := range extras {
		if _, ok := members[name]; !ok {
			members[name] = raw
		}
	}
	return json.Marshal(members)
}

func normaliseMember(kind lenientKind, raw json.RawMessage) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return trimmed, true
	}
	switch kind {
	case lenientTime:
		at, ok := parseLegacyTime(trimmed)
		if !ok {
			return nil, false
		}
		out, err := json.Marshal(at)
		return out, err == nil
	case lenientGrade:
		grade, ok := parseLegacyGrade(trimmed)
		if !ok {
			return nil, false
		}
		return json.RawMessage(strconv.Itoa(grade)), true
	}
	return trimmed, true
}

var legacyTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// parseLegacyTime accepts RFC 3339 strings, a few looser layouts and epoch
// milliseconds as a number or numeric string.
func parseLegacyTime(raw []byte) (time.Time, bool) {
	var millis float64
	if err := json.Unmarshal(raw, &millis); err == nil {
		return time.UnixMilli(int64(millis)).UTC(), true
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return time.Time{}, false
	}
	text = strings.TrimSpace(text)
	for _, layout := range legacyTimeLayouts {
		if at, err := time.Parse(layout, text); err == nil {
			return at, true
		}
	}
	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// parseLegacyGrade accepts any JSON number or numeric string, rounds it to the
// nearest integer and clamps it to [0,100].
func parseLegacyGrade(raw []byte) (int, bool) {
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		var text string
		if json.Unmarshal(raw, &text) != nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return 0, false
		}
		value = parsed
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return ClampGrade(int(math.Round(value))), true
}

var fieldCache sync.Map

// jsonFields lists the member names encoding/json uses for struct type t.
func jsonFields(t reflect.Type) map[string]struct{} {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string]struct{})
	}
	fields := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields[name] = struct{}{}
	}
	fieldCache.Store(t, fields)
	return fields
}
