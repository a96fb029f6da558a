// Package memory is an in-process store seeded from the demo fixtures.
// Nothing survives a restart.
package memory

import (
	"sort"
	"sync"

	"github.com/neurosense/assessment-service/internal/fixtures"
	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
)

type store struct {
	mu           sync.RWMutex
	users        map[string]models.User
	assessments  map[string]models.Assessment
	events       map[string]models.HealthEvent
	notes        map[string]models.ClinicalNote
	medications  map[string]models.Medication
	appointments map[string]models.Appointment
}

type Repository struct {
	users       *userRepository
	assessments *assessmentRepository
	clinical    *clinicalRepository
}

// New returns an empty store.
func New() *Repository {
	return newRepository(&fixtures.Data{})
}

// NewSeeded returns a store holding the demo fixtures.
func NewSeeded() *Repository {
	return newRepository(fixtures.Load())
}

func newRepository(data *fixtures.Data) *Repository {
	s := &store{
		users:        make(map[string]models.User, len(data.Users)),
		assessments:  make(map[string]models.Assessment, len(data.Assessments)),
		events:       make(map[string]models.HealthEvent, len(data.HealthEvents)),
		notes:        make(map[string]models.ClinicalNote, len(data.Notes)),
		medications:  make(map[string]models.Medication, len(data.Medications)),
		appointments: make(map[string]models.Appointment, len(data.Appointments)),
	}
	for _, u := range data.Users {
		s.users[u.ID] = u
	}
	for _, a := range data.Assessments {
		s.assessments[a.ID] = a
	}
	for _, e := range data.HealthEvents {
		s.events[e.ID] = e
	}
	for _, n := range data.Notes {
		s.notes[n.ID] = n
	}
	for _, m := range data.Medications {
		s.medications[m.ID] = m
	}
	for _, a := range data.Appointments {
		s.appointments[a.ID] = a
	}

	return &Repository{
		users:       &userRepository{s},
		assessments: &assessmentRepository{s},
		clinical:    &clinicalRepository{s},
	}
}

func (r *Repository) Users() repositories.UserRepository             { return r.users }
func (r *Repository) Assessments() repositories.AssessmentRepository { return r.assessments }
func (r *Repository) Clinical() repositories.ClinicalRepository      { return r.clinical }
func (r *Repository) Close() error                                   { return nil }

// collect copies matching values out of m and sorts them with less.
func collect[T any](m map[string]T, keep func(*T) bool, less func(a, b *T) bool) []*T {
	out := make([]*T, 0)
	for _, v := range m {
		if keep(&v) {
			out = append(out, &v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
