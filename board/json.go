package board

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// UnmarshalJSON decodes a component field by field. A field whose value
// has the wrong shape is left at its zero value (so Validate rejects the
// record) and its raw value is kept in Extra, which means one bad record
// never fails the whole document. A record that is not an object decodes
// to the zero Component, which Validate rejects for its missing id.
func (c *Component) UnmarshalJSON(data []byte) error {
	*c = Component{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil //nolint:nilerr // malformed records are skipped at rebuild
	}
	for key, val := range raw {
		var err error
		switch key {
		case "id":
			err = json.Unmarshal(val, &c.ID)
		case "type":
			err = json.Unmarshal(val, &c.Type)
		case "layer":
			err = json.Unmarshal(val, &c.Layer)
		case "pos":
			err = json.Unmarshal(val, &c.Pos)
		case "size":
			err = json.Unmarshal(val, &c.Size)
		case "radius":
			err = json.Unmarshal(val, &c.Radius)
		case "points":
			err = json.Unmarshal(val, &c.Points)
		case "width":
			err = json.Unmarshal(val, &c.Width)
		case "rotation":
			err = json.Unmarshal(val, &c.Rotation)
		default:
			err = errUnknownKey
		}
		if err != nil {
			var v any
			if json.Unmarshal(val, &v) != nil {
				continue
			}
			if c.Extra == nil {
				c.Extra = make(map[string]any)
			}
			c.Extra[key] = v
		}
	}
	return nil
}

var errUnknownKey = errors.New("unknown key")

// MarshalJSON writes the known fields over any preserved extra fields.
func (c Component) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+4)
	for k, v := range c.Extra {
		out[k] = v
	}
	set := func(key string, v any, present bool) {
		if present {
			out[key] = v
		}
	}
	set("id", c.ID, c.ID != "" || out["id"] == nil)
	set("type", c.Type, c.Type != "" || out["type"] == nil)
	set("layer", c.Layer, c.Layer != "")
	set("pos", c.Pos, c.Pos != nil)
	set("size", c.Size, c.Size != nil)
	set("radius", c.Radius, c.Radius != 0)
	set("points", c.Points, c.Points != nil)
	set("width", c.Width, c.Width != 0)
	set("rotation", c.Rotation, c.Rotation != 0)
	return json.Marshal(out)
}

// Decode reads a document from r.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Encode writes doc to w as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Parse decodes a document held in memory.
func Parse(data []byte) (Document, error) {
	return Decode(bytes.NewReader(data))
}

// Marshal encodes doc as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadFile reads a document from path.
func LoadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// SaveFile writes doc to path, replacing any existing file.
func SaveFile(path string, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
