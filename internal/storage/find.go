package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tskpay-backend/internal/apperr"
	"tskpay-backend/internal/models"
)

// Typed lookup helpers over the list contract. The engine works on the full
// in-memory data set, so id lookups are linear scans by design.

func FindMember(ctx context.Context, s Store, id uuid.UUID) (*models.Member, error) {
	items, err := s.Members(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("member %s: %w", id, apperr.ErrNotFound)
}

func FindParent(ctx context.Context, s Store, id uuid.UUID) (*models.Parent, error) {
	items, err := s.Parents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("parent %s: %w", id, apperr.ErrNotFound)
}

func FindCost(ctx context.Context, s Store, id uuid.UUID) (*models.Cost, error) {
	items, err := s.Costs(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("cost %s: %w", id, apperr.ErrNotFound)
}

func FindPayment(ctx context.Context, s Store, id uuid.UUID) (*models.Payment, error) {
	items, err := s.Payments(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("payment %s: %w", id, apperr.ErrNotFound)
}

func FindTransaction(ctx context.Context, s Store, id uuid.UUID) (*models.BankTransaction, error) {
	items, err := s.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("bank transaction %s: %w", id, apperr.ErrNotFound)
}

func FindStatement(ctx context.Context, s Store, id uuid.UUID) (*models.BankStatement, error) {
	items, err := s.Statements(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("bank statement %s: %w", id, apperr.ErrNotFound)
}
