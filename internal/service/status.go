package service

import (
	"context"
	"fmt"

	"github.com/shopengine/order-service/internal/entities"
)

type StatusRepo interface {
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status entities.Status) (entities.Order, error)
}

// StatusMachine governs order-status transitions: only admins may
// change status, the new status must belong to the closed set, and the
// transition table must allow the step.
type StatusMachine struct {
	repo StatusRepo
}

func NewStatusMachine(repo StatusRepo) *StatusMachine {
	return &StatusMachine{repo: repo}
}

// Transition applies newStatus to the order. The read-then-update pair
// is not guarded against concurrent admins; the last write wins.
func (m *StatusMachine) Transition(ctx context.Context, requester entities.Requester, orderID string, rawStatus string) (entities.Order, error) {
	if !requester.IsAdmin {
		return entities.Order{}, entities.ErrForbidden
	}

	status, err := entities.ParseStatus(rawStatus)
	if err != nil {
		return entities.Order{}, err
	}

	current, err := m.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	if !current.Status.CanTransitionTo(status) {
		return entities.Order{}, fmt.Errorf("%w: %s cannot follow %s", entities.ErrInvalidStatus, status, current.Status)
	}

	return m.repo.UpdateStatus(ctx, orderID, status)
}
