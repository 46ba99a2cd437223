package profile

import (
	"context"
	"errors"
	"fmt"
)

// Service resolves profiles, materializing a default for first-time callers.
type Service struct {
	repo Repository
}

// NewService builds a profile service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the stored profile or a lazily created default one. Accounts
// are created on first claim, so a caller may legitimately have no profile
// row yet.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}

	p = Profile{
		UserID:      userID,
		DisplayName: fmt.Sprintf("User %s", userID),
		Email:       fmt.Sprintf("%s@example.com", userID),
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Update stores caller-edited display fields.
func (s *Service) Update(ctx context.Context, p Profile) (Profile, error) {
	if p.UserID == "" {
		return Profile{}, errors.New("user id is required")
	}
	if p.DisplayName == "" {
		p.DisplayName = fmt.Sprintf("User %s", p.UserID)
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}
