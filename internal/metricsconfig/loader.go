package metricsconfig

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed metrics.yaml
var defaultYAML []byte

// DefaultYAML returns the embedded configuration document
func DefaultYAML() []byte {
	return append([]byte(nil), defaultYAML...)
}

// Default parses the embedded configuration
func Default() (*Config, error) {
	return Parse(defaultYAML)
}

// Load reads a YAML file and returns Config with raw bytes.
// An empty path loads the embedded default.
func Load(path string) (*Config, []byte, error) {
	if path == "" {
		cfg, err := Default()
		return cfg, DefaultYAML(), err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read metrics config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes and validates a YAML document
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode metrics config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	cfg.index()
	return &cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// map 키는 json.Marshal 이 정렬하므로 해시는 재현 가능
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
