package utilities

import (
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string, used to tag
// requests in the access log.
func NewKSUID() string {
	return ksuid.New().String()
}
