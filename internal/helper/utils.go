// Package helper holds small cross-cutting utilities.
package helper

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// GenerateUUID returns a random UUID string.
func GenerateUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating uuid: %w", err)
	}
	return id.String(), nil
}

// PrettyPrint writes v to stdout as indented JSON.
func PrettyPrint(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("rendering json: %w", err)
	}
	fmt.Println(string(b))
	return nil
}
