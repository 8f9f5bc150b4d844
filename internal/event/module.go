package event

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/gzip"
)

type Module struct {
	Effects []ModuleEffect `json:"effects"`
}

type ModuleEffect struct {
	ID    int32  `json:"id"`
	Level uint32 `json:"level"`
}

// EncodeModules renders modules in the export format: JSON, gzip, then
// URL-safe base64 without padding.
func EncodeModules(modules []Module) (string, error) {
	raw, err := json.Marshal(ModuleData{Modules: modules})
	if err != nil {
		return "", fmt.Errorf("marshal modules: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("compress modules: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress modules: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeModules reverses EncodeModules.
func DecodeModules(s string) ([]Module, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode modules: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompress modules: %w", err)
	}
	defer zr.Close()

	var data ModuleData
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return nil, fmt.Errorf("unmarshal modules: %w", err)
	}
	return data.Modules, nil
}
