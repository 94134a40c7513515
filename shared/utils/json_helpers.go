package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeStrictJSON разбирает JSON, запрещая неизвестные поля.
// Используется для каталога событий: опечатка в ключе данных должна
// падать при старте, а не молча игнорироваться.
func DecodeStrictJSON(data []byte, target interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("strict json decode failed: %w", err)
	}
	return nil
}
