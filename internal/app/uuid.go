package app

import (
	"fmt"

	"github.com/google/uuid"
)

// UUIDLen is the size of a service UUID on the wire.
const UUIDLen = 16

// UUIDString formats id as lowercase 8-4-4-4-12 hex digits in byte order.
func UUIDString(id [UUIDLen]byte) string {
	return uuid.UUID(id).String()
}

// ParseUUID parses the dashed text form produced by UUIDString.
func ParseUUID(s string) ([UUIDLen]byte, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return [UUIDLen]byte{}, fmt.Errorf("app: parse uuid %q: %w", s, err)
	}
	return id, nil
}
