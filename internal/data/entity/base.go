package entity

import (
	"time"

	"github.com/google/uuid"
)

// Record is the identity every stored row carries.
type Record struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}
