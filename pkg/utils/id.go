package utils

import "github.com/google/uuid"

// NewID 所有资源的 id（UUIDv4）
func NewID() string { return uuid.NewString() }

func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
