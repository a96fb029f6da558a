package memory

import (
	"context"
	"strings"

	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
)

type userRepository struct {
	s *store
}

func (r *userRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *userRepository) ListPatients(_ context.Context, filters repositories.PatientFilters) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	patients := collect(r.s.users,
		func(u *models.User) bool {
			if !u.IsPatient() || !u.MatchesSearch(filters.Search) {
				return false
			}
			return filters.DoctorID == nil || (u.DoctorID != nil && *u.DoctorID == *filters.DoctorID)
		},
		func(a, b *models.User) bool { return a.ID < b.ID },
	)
	return paginate(patients, filters.Limit, filters.Offset), nil
}

func (r *userRepository) CountByRole(_ context.Context, role models.UserRole) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, u := range r.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
