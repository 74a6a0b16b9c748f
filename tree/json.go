package tree

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
)

// FromJSON parses JSON text into a Node tree. Object key order follows
// the source document. Numbers keep their source spelling so round-trips
// do not reformat them.
func FromJSON(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parse json: trailing data after top-level value")
	}
	// go-json decodes objects into map[string]any, which loses key order,
	// so fromJSONValue walks the raw message stream instead.
	return fromJSONValue(raw, "")
}

func fromJSONValue(raw json.RawMessage, path Path) (*Node, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("parse json: empty value at %s", path)
	}
	switch raw[0] {
	case '{':
		out := NewMapping(path)
		var fields []jsonField
		if err := unmarshalOrderedObject(raw, &fields); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		for _, f := range fields {
			if out.Has(f.key) {
				return nil, fmt.Errorf("parse json: duplicate object key %q at %s", f.key, path)
			}
			child, err := fromJSONValue(f.value, path.Key(f.key))
			if err != nil {
				return nil, err
			}
			out.Pairs = append(out.Pairs, Pair{Key: f.key, Value: child})
		}
		return out, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		out := &Node{Kind: Sequence, Path: path, Items: make([]*Node, 0, len(items))}
		for i, item := range items {
			child, err := fromJSONValue(item, path.Index(i))
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, child)
		}
		return out, nil

	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return &Node{Kind: Scalar, Path: path, Value: s, Tag: "!!str"}, nil

	default:
		text := string(raw)
		switch text {
		case "null":
			return &Node{Kind: Scalar, Path: path, Value: "null", Tag: "!!null"}, nil
		case "true", "false":
			return &Node{Kind: Scalar, Path: path, Value: text, Tag: "!!bool"}, nil
		}
		if _, err := strconv.ParseInt(text, 10, 64); err == nil {
			return &Node{Kind: Scalar, Path: path, Value: text, Tag: "!!int"}, nil
		}
		if _, err := strconv.ParseFloat(text, 64); err == nil {
			return &Node{Kind: Scalar, Path: path, Value: text, Tag: "!!float"}, nil
		}
		return nil, fmt.Errorf("parse json: invalid token %q at %s", text, path)
	}
}

// MarshalJSON renders a Node tree as indented JSON, preserving mapping
// key order. Scalars tagged as non-string YAML types come out as native
// JSON values; everything else is emitted as a string.
func MarshalJSON(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSONValue(&buf, n, ""); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeJSONValue(buf *bytes.Buffer, n *Node, indent string) error {
	switch n.Kind {
	case Scalar:
		switch n.Tag {
		case "!!null":
			buf.WriteString("null")
			return nil
		case "!!bool", "!!int", "!!float":
			buf.WriteString(n.Value)
			return nil
		}
		encoded, err := json.Marshal(n.Value)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil

	case Sequence:
		if len(n.Items) == 0 {
			buf.WriteString("[]")
			return nil
		}
		inner := indent + "  "
		buf.WriteString("[\n")
		for i, item := range n.Items {
			buf.WriteString(inner)
			if err := writeJSONValue(buf, item, inner); err != nil {
				return err
			}
			if i < len(n.Items)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent)
		buf.WriteByte(']')
		return nil

	case Mapping:
		if len(n.Pairs) == 0 {
			buf.WriteString("{}")
			return nil
		}
		inner := indent + "  "
		buf.WriteString("{\n")
		for i, p := range n.Pairs {
			buf.WriteString(inner)
			key, err := json.Marshal(p.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteString(": ")
			if err := writeJSONValue(buf, p.Value, inner); err != nil {
				return err
			}
			if i < len(n.Pairs)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent)
		buf.WriteByte('}')
		return nil
	}
	return fmt.Errorf("marshal json: unknown node kind at %s", n.Path)
}

// jsonField is one key/value entry of a JSON object in source order.
type jsonField struct {
	key   string
	value json.RawMessage
}

// unmarshalOrderedObject splits a JSON object into fields while keeping
// key order, using the streaming decoder.
func unmarshalOrderedObject(raw json.RawMessage, out *[]jsonField) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		*out = append(*out, jsonField{key: key, value: value})
	}
	_, err = dec.Token() // closing brace
	return err
}
