package main

import (
	"github.com/gofrs/uuid"
)

const SessionIDPrefix string = "s"

// GenerateID provides a random uid.
func GenerateID(prefix string) string {
	id, _ := uuid.NewV4()
	return prefix + ":" + id.String()
}
