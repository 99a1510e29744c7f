package util

import (
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// GenUUID generates a UUID string used for agenda and version ids.
func GenUUID() string {
	return uuid.New().String()
}

// GenShortUID generates a short, url-safe id used for schedule items
// that do not reference a catalog session (meals, breaks).
func GenShortUID() string {
	return shortuuid.New()
}
