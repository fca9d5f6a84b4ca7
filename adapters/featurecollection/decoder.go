package featurecollection

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gocnwi/domain/core"
	"gocnwi/domain/sample"

	"github.com/goccy/go-json"
)

// Properties is a feature's property bag with its key order preserved
type Properties struct {
	Keys   []string
	Values map[string]interface{}
	// Repeated lists keys the decoded object carried more than once; Values holds the last one
	Repeated []string
}

// Get returns the value stored under key
func (p Properties) Get(key string) (interface{}, bool) {
	v, ok := p.Values[key]
	return v, ok
}

// Len returns the number of properties
func (p Properties) Len() int { return len(p.Keys) }

// Set stores a value, appending the key when it is new
func (p *Properties) Set(key string, value interface{}) {
	if p.Values == nil {
		p.Values = make(map[string]interface{})
	}
	if _, exists := p.Values[key]; !exists {
		p.Keys = append(p.Keys, key)
	}
	p.Values[key] = value
}

// FromMap builds properties from a plain map; keys are taken in the order given
func FromMap(keys []string, values map[string]interface{}) Properties {
	var p Properties
	for _, k := range keys {
		if v, ok := values[k]; ok {
			p.Set(k, v)
		}
	}
	return p
}

// UnmarshalJSON decodes a JSON object keeping the order its keys appear in
func (p *Properties) UnmarshalJSON(data []byte) error {
	*p = Properties{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("properties must be an object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("property key must be a string, got %v", tok)
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("property %q: %w", key, err)
		}
		if _, exists := p.Values[key]; exists {
			p.Repeated = append(p.Repeated, key)
		}
		p.Set(key, value)
	}

	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the properties in key order
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.Values[k])
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Feature is one GeoJSON feature; geometry is kept undecoded
type Feature struct {
	Type       string          `json:"type"`
	ID         interface{}     `json:"id,omitempty"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties Properties      `json:"properties"`
}

// Collection is a GeoJSON FeatureCollection as written by the export step
type Collection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Decode reads a FeatureCollection document
func Decode(r io.Reader) (*Collection, error) {
	var c Collection
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidFeatureCollection, err)
	}
	if c.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: type is %q", core.ErrInvalidFeatureCollection, c.Type)
	}
	return &c, nil
}

// DecodeFile opens and decodes a FeatureCollection file
func DecodeFile(path string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feature collection: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes a FeatureCollection document
func Encode(w io.Writer, c *Collection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// EncodeFile writes a FeatureCollection document to path
func EncodeFile(path string, c *Collection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create feature collection: %w", err)
	}
	if err := Encode(f, c); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode feature collection: %w", err)
	}
	return f.Close()
}

// PropertyBags returns the property bag of every feature, in feature order
func (c *Collection) PropertyBags() []Properties {
	bags := make([]Properties, len(c.Features))
	for i, f := range c.Features {
		bags[i] = f.Properties
	}
	return bags
}

// Records flattens the features into sample records
func (c *Collection) Records() sample.Records {
	return RecordsFromProperties(c.PropertyBags())
}

// RecordsFromProperties flattens property bags into sample records. Columns follow the
// first-seen key order across bags, so the predictor schema matches the export's column order.
func RecordsFromProperties(bags []Properties) sample.Records {
	seen := make(map[string]bool)
	records := sample.Records{Rows: make([]sample.Record, 0, len(bags))}
	for _, bag := range bags {
		row := make(sample.Record, bag.Len())
		for _, k := range bag.Keys {
			if !seen[k] {
				seen[k] = true
				records.Columns = append(records.Columns, k)
			}
			row[k] = bag.Values[k]
		}
		records.Rows = append(records.Rows, row)
	}
	return records
}

// FileReader reads sample records from a FeatureCollection file
type FileReader struct {
	path string
}

// NewFileReader creates a reader for the given GeoJSON file
func NewFileReader(path string) *FileReader {
	return &FileReader{path: path}
}

// ReadRecords decodes the file and flattens its features into records
func (r *FileReader) ReadRecords() (sample.Records, error) {
	c, err := DecodeFile(r.path)
	if err != nil {
		return sample.Records{}, err
	}
	return c.Records(), nil
}
