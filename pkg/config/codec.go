package config

import (
	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

// Codec serializes the persisted config record
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// YAMLCodec encodes records as YAML
type YAMLCodec struct{}

// Name implements Codec
func (YAMLCodec) Name() string { return "yaml" }

// Marshal implements Codec
func (YAMLCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

// Unmarshal implements Codec
func (YAMLCodec) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

// JSONCodec encodes records as JSON
type JSONCodec struct{}

// Name implements Codec
func (JSONCodec) Name() string { return "json" }

// Marshal implements Codec
func (JSONCodec) Marshal(v any) ([]byte, error) { return sonic.Marshal(v) }

// Unmarshal implements Codec
func (JSONCodec) Unmarshal(data []byte, v any) error { return sonic.Unmarshal(data, v) }
