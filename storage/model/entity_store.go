package model

import (
	"context"
)

// Entity is a row with a numeric primary key
type Entity interface {
	PrimaryKey() uint
}

// Creatable is a create payload that builds a new row of T
type Creatable[T any] interface {
	New() *T
}

// Patch is a partial update; Assignments returns the present columns mapped
// to their new values (nil meaning NULL)
type Patch interface {
	Assignments() map[string]any
}

// EntityStore is the generic persistence contract shared by all entities
type EntityStore[T any, C Creatable[T], U Patch] interface {
	Get(ctx context.Context, id uint) (*T, error)
	List(ctx context.Context, offset, limit int) ([]T, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, create C) (*T, error)
	Update(ctx context.Context, existing *T, update U) (*T, error)
	Delete(ctx context.Context, id uint) (*T, error)
}

// ReferenceStore is an EntityStore whose deletes are refused while assets
// still point at the entity
type ReferenceStore[T any, C Creatable[T], U Patch] interface {
	EntityStore[T, C, U]
	Reference() Reference
}
