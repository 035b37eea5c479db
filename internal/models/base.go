package models

import "time"

// base holds the identity and lifecycle columns shared by persisted entities.
type base struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newBase(sequence int) base {
	now := time.Now()
	return base{sequence: sequence, createdAt: now, updatedAt: now}
}

func (b *base) ID() string                { return b.id }
func (b *base) Sequence() int             { return b.sequence }
func (b *base) CreatedAt() time.Time      { return b.createdAt }
func (b *base) UpdatedAt() time.Time      { return b.updatedAt }
func (b *base) DeletedAt() *time.Time     { return b.deletedAt }
func (b *base) SetID(id string)           { b.id = id }
func (b *base) SetSequence(sequence int)  { b.sequence = sequence }
func (b *base) SetCreatedAt(t time.Time)  { b.createdAt = t }
func (b *base) SetUpdatedAt(t time.Time)  { b.updatedAt = t }
func (b *base) SetDeletedAt(t *time.Time) { b.deletedAt = t }
