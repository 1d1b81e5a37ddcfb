package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a time-ordered identifier with a readable prefix, e.g.
// "sale-0192f1c4-...". UUIDv7 keeps ids sortable by creation time.
func New(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
	}
	return fmt.Sprintf("%s-%s", prefix, id.String())
}
