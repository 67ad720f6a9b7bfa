package model

import (
	"time"

	"github.com/google/uuid"
)

type Farmer struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}
