// Package record defines the immutable scored loan record browsed by the carousel.
package record

import (
	"bytes"
	"encoding/json"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Prediction labels produced by the classifier.
const (
	PredictionRepay   = 0
	PredictionDefault = 1
)

// Keys added to every marshalled record after its fields.
const (
	KeyPrediction     = "prediction"
	KeyRecommendation = "recommendation"
)

// fieldPrefix is prepended to a field name that collides with an added key.
const fieldPrefix = "request_"

// Field is one named value of a Record.
type Field struct {
	Name  string
	Value string
}

// Record is an ordered set of string fields plus an integer prediction.
// The zero value is an empty record with prediction 0.
type Record struct {
	fields     []Field
	prediction int
}

// New builds a Record. fields is copied, so later changes by the caller do
// not affect the record.
func New(fields []Field, prediction int) Record {
	return Record{
		fields:     append([]Field(nil), fields...),
		prediction: prediction,
	}
}

// Fields returns a copy of the fields in order.
func (r Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Names returns field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// Value returns the first field named name.
func (r Record) Value(name string) (string, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Prediction returns the predicted label.
func (r Record) Prediction() int {
	return r.prediction
}

// WillDefault reports whether the classifier predicted a default.
func (r Record) WillDefault() bool {
	return r.prediction == PredictionDefault
}

// Recommendation is "Reject" for a predicted default and "Accept" otherwise.
func (r Record) Recommendation() string {
	if r.WillDefault() {
		return "Reject"
	}
	return "Accept"
}

// Outcome describes the prediction in words.
func (r Record) Outcome() string {
	if r.WillDefault() {
		return "Will default"
	}
	return "Will not default"
}

// outputNames returns the marshalled key of every field. A field named like
// an added key, or like an earlier renamed field, gets fieldPrefix until
// the key is unique.
func (r Record) outputNames() []string {
	used := map[string]bool{KeyPrediction: true, KeyRecommendation: true}
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		name := f.Name
		for used[name] {
			name = fieldPrefix + name
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// MarshalJSON writes the fields as an object in their original order,
// followed by prediction and recommendation.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	names := r.outputNames()
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONPair(&buf, names[i], f.Value); err != nil {
			return nil, err
		}
	}
	if len(r.fields) > 0 {
		buf.WriteByte(',')
	}
	buf.WriteString(`"` + KeyPrediction + `":`)
	buf.WriteString(strconv.Itoa(r.prediction))
	buf.WriteByte(',')
	if err := writeJSONPair(&buf, KeyRecommendation, r.Recommendation()); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONPair(buf *bytes.Buffer, key, value string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// MarshalYAML emits an ordered mapping with the same layout as MarshalJSON.
func (r Record) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	appendPair := func(key, value, tag string) {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value},
		)
	}
	names := r.outputNames()
	for i, f := range r.fields {
		appendPair(names[i], f.Value, "!!str")
	}
	appendPair(KeyPrediction, strconv.Itoa(r.prediction), "!!int")
	appendPair(KeyRecommendation, r.Recommendation(), "!!str")
	return node, nil
}
