package application

import "steppetalk/internal/domain"

type SessionStore interface {
	Get(id string) []domain.Turn
	Update(id string, fn func(history []domain.Turn) ([]domain.Turn, error)) error
	Delete(id string)
	Len() int
}
