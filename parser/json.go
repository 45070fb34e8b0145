package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// decodeLimitedObject decodes data as a single JSON object, enforcing
// depth/string/array limits and rejecting duplicate keys as it goes — never
// after the fact. It is a narrow typed decoder in place of reflection-based
// binding: the only shapes it ever produces are string, json.Number, bool,
// nil, []any, and map[string]any.
func decodeLimitedObject(data []byte, cfg Config) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading top-level token: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("top-level value is not a JSON object")
	}

	obj, err := decodeObjectBody(dec, cfg, 1)
	if err != nil {
		return nil, err
	}

	if dec.More() {
		return nil, fmt.Errorf("trailing data after top-level object")
	}
	return obj, nil
}

func decodeObjectBody(dec *json.Decoder, cfg Config, depth int) (map[string]any, error) {
	if depth > cfg.MaxDepth {
		return nil, fmt.Errorf("max depth %d exceeded", cfg.MaxDepth)
	}

	obj := make(map[string]any)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading object key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string")
		}
		if uint32(len(key)) > cfg.MaxStringSize {
			return nil, fmt.Errorf("object key exceeds max string size")
		}
		if _, dup := obj[key]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}

		value, err := decodeValue(dec, cfg, depth)
		if err != nil {
			return nil, err
		}
		obj[key] = value
	}

	// consume the closing '}'
	end, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading object terminator: %w", err)
	}
	if d, ok := end.(json.Delim); !ok || d != '}' {
		return nil, fmt.Errorf("expected object terminator")
	}
	return obj, nil
}

func decodeArrayBody(dec *json.Decoder, cfg Config, depth int) ([]any, error) {
	if depth > cfg.MaxDepth {
		return nil, fmt.Errorf("max depth %d exceeded", cfg.MaxDepth)
	}

	var arr []any
	for dec.More() {
		if len(arr) >= cfg.MaxArraySize {
			return nil, fmt.Errorf("array exceeds max array size %d", cfg.MaxArraySize)
		}
		value, err := decodeValue(dec, cfg, depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)
	}

	end, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading array terminator: %w", err)
	}
	if d, ok := end.(json.Delim); !ok || d != ']' {
		return nil, fmt.Errorf("expected array terminator")
	}
	return arr, nil
}

func decodeValue(dec *json.Decoder, cfg Config, depth int) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("unexpected end of JSON input")
		}
		return nil, fmt.Errorf("reading value: %w", err)
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObjectBody(dec, cfg, depth+1)
		case '[':
			return decodeArrayBody(dec, cfg, depth+1)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", v)
		}
	case string:
		if uint32(len(v)) > cfg.MaxStringSize {
			return nil, fmt.Errorf("string value exceeds max string size")
		}
		return v, nil
	case json.Number, bool, nil:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported JSON value type %T", v)
	}
}
