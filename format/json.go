package format

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

type JSONEncoder struct {
	w        io.Writer
	analysis *Analysis
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(a *Analysis) error {
	e.analysis = a
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(buildDocument(e.analysis), "", "  ")
}

type YAMLEncoder struct {
	w        io.Writer
	analysis *Analysis
}

func NewYAMLEncoder(w io.Writer) *YAMLEncoder {
	return &YAMLEncoder{w: w}
}

func (e *YAMLEncoder) Encode(a *Analysis) error {
	e.analysis = a
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *YAMLEncoder) MarshalText() ([]byte, error) {
	return yaml.Marshal(buildDocument(e.analysis))
}
