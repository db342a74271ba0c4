package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor hands out database handles. Every repository call receives one of
// these handles, so a whole operation can share a single transaction.
type Transactor interface {
	Conn(ctx context.Context) *gorm.DB
	WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}
