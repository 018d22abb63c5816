package repository

import (
	"encoding/json"
	"fmt"
)

// marshalJSONB 序列化 JSONB 列；nil 切片写为 null
func marshalJSONB(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb: %w", err)
	}
	return b, nil
}

// unmarshalJSONB 反序列化 JSONB 列；空值保持零值
func unmarshalJSONB(raw []byte, dest interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to unmarshal jsonb: %w", err)
	}
	return nil
}
