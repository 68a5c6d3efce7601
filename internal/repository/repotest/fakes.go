// Package repotest provides in-memory fakes of the repository store
// interfaces for tests. The fakes are safe for concurrent use so
// booking race behavior can be exercised without a database.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cetiassist/asesoria_backend/internal/model"
	"github.com/google/uuid"
)

type FakeAvailabilityStore struct {
	mu    sync.Mutex
	items map[string]*model.Availability

	// CreateErr, when set, fails the next Create call.
	CreateErr error
}

func NewFakeAvailabilityStore() *FakeAvailabilityStore {
	return &FakeAvailabilityStore{items: make(map[string]*model.Availability)}
}

func (f *FakeAvailabilityStore) Create(ctx context.Context, availability *model.Availability) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		err := f.CreateErr
		f.CreateErr = nil
		return err
	}

	if availability.ID == "" {
		availability.ID = uuid.New().String()
	}
	availability.CreatedAt = time.Now()

	clone := *availability
	f.items[availability.ID] = &clone
	return nil
}

func (f *FakeAvailabilityStore) GetByID(ctx context.Context, id string) (*model.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	clone := *item
	return &clone, nil
}

func (f *FakeAvailabilityStore) ListOpenFrom(ctx context.Context, from time.Time, professorID, subject string) ([]*model.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Availability
	for _, item := range f.items {
		if !item.IsAvailable || item.StartAt.Before(from) {
			continue
		}
		if professorID != "" && item.ProfessorID != professorID {
			continue
		}
		if subject != "" && item.SubjectLower != strings.ToLower(strings.TrimSpace(subject)) {
			continue
		}
		clone := *item
		out = append(out, &clone)
	}
	sortAvailabilities(out)
	return out, nil
}

func (f *FakeAvailabilityStore) ListFrom(ctx context.Context, from time.Time) ([]*model.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Availability
	for _, item := range f.items {
		if item.StartAt.Before(from) {
			continue
		}
		clone := *item
		out = append(out, &clone)
	}
	sortAvailabilities(out)
	return out, nil
}

func (f *FakeAvailabilityStore) Reserve(ctx context.Context, id, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[id]
	if !ok {
		return model.ErrAvailabilityNotFound
	}
	if !item.IsAvailable {
		return model.ErrAlreadyReserved
	}

	item.IsAvailable = false
	item.StudentID = &studentID
	return nil
}

func (f *FakeAvailabilityStore) Release(ctx context.Context, id, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[id]
	if !ok {
		return model.ErrAvailabilityNotFound
	}
	if item.IsAvailable {
		return model.ErrNotReserved
	}
	if studentID != "" && (item.StudentID == nil || *item.StudentID != studentID) {
		return model.ErrNotReserved
	}

	item.IsAvailable = true
	item.StudentID = nil
	return nil
}

func (f *FakeAvailabilityStore) DeleteStartedBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var expired []*model.Availability
	for _, item := range f.items {
		if item.StartAt.Before(cutoff) {
			expired = append(expired, item)
		}
	}
	sortAvailabilities(expired)

	if len(expired) > limit {
		expired = expired[:limit]
	}
	for _, item := range expired {
		delete(f.items, item.ID)
	}
	return int64(len(expired)), nil
}

// Len reports how many slots the store holds.
func (f *FakeAvailabilityStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func sortAvailabilities(items []*model.Availability) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].StartAt.Equal(items[j].StartAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].StartAt.Before(items[j].StartAt)
	})
}

type FakeReservationStore struct {
	mu    sync.Mutex
	items []*model.Reservation

	// CreateErr, when set, fails the next Create call.
	CreateErr error
}

func NewFakeReservationStore() *FakeReservationStore {
	return &FakeReservationStore{}
}

func (f *FakeReservationStore) Create(ctx context.Context, reservation *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		err := f.CreateErr
		f.CreateErr = nil
		return err
	}

	if reservation.ID == "" {
		reservation.ID = uuid.New().String()
	}
	reservation.CreatedAt = time.Now()

	clone := *reservation
	f.items = append(f.items, &clone)
	return nil
}

func (f *FakeReservationStore) ExistsFor(ctx context.Context, studentID, availabilityID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, item := range f.items {
		if item.StudentID == studentID && item.AvailabilityID == availabilityID {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeReservationStore) ListByStudent(ctx context.Context, studentID string) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Reservation
	for _, item := range f.items {
		if item.StudentID == studentID {
			clone := *item
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Len reports how many reservations were recorded.
func (f *FakeReservationStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type FakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{users: make(map[string]*model.User)}
}

func (f *FakeUserStore) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.Email == strings.ToLower(user.Email) {
			return model.ErrEmailTaken
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now()

	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *FakeUserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (f *FakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	want := strings.ToLower(strings.TrimSpace(email))
	for _, user := range f.users {
		if user.Email == want {
			clone := *user
			return &clone, nil
		}
	}
	return nil, nil
}
