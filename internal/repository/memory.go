package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"identity-service/internal/models"
)

// ErrNoEmailOrPhone is returned when a lookup or insert names neither field.
var ErrNoEmailOrPhone = errors.New("email or phone number required")

// MemoryStore keeps contacts in a map keyed by id.
type MemoryStore struct {
	mu       sync.Mutex
	contacts map[int64]*models.Contact
	nextID   int64
	now      func() time.Time
}

// NewMemoryStore creates an empty store. now defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		contacts: make(map[int64]*models.Contact),
		nextID:   1,
		now:      now,
	}
}

// Seed inserts c as is, keeping its id and timestamps.
func (s *MemoryStore) Seed(c models.Contact) *models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clone(&c)
	s.contacts[c.ID] = stored
	if c.ID >= s.nextID {
		s.nextID = c.ID + 1
	}
	return clone(stored)
}

// All returns every contact, deleted ones included, ordered by id.
func (s *MemoryStore) All() []*models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sorted(func(*models.Contact) bool { return true })
}

// Len returns the number of stored contacts.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contacts)
}

func (s *MemoryStore) FindByEmailOrPhone(ctx context.Context, email, phoneNumber *string) ([]*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memoryView{s}.FindByEmailOrPhone(ctx, email, phoneNumber)
}

func (s *MemoryStore) FindClusterByPrimaryIDs(ctx context.Context, ids []int64) ([]*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memoryView{s}.FindClusterByPrimaryIDs(ctx, ids)
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memoryView{s}.FindByID(ctx, id)
}

func (s *MemoryStore) Create(ctx context.Context, c models.NewContact) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memoryView{s}.Create(ctx, c)
}

func (s *MemoryStore) Update(ctx context.Context, id int64, u models.ContactUpdate) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memoryView{s}.Update(ctx, id, u)
}

// WithinTx holds the store lock for the duration of fn and restores the
// previous contacts if fn fails or panics. Ids handed out inside a failed call
// are not reused.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(repo ContactRepository) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[int64]*models.Contact, len(s.contacts))
	for id, c := range s.contacts {
		snapshot[id] = clone(c)
	}
	defer func() {
		if p := recover(); p != nil {
			s.contacts = snapshot
			panic(p)
		}
	}()

	if err = fn(memoryView{s}); err != nil {
		s.contacts = snapshot
	}
	return err
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close() error { return nil }

// sorted returns clones of the live contacts accepted by keep, ordered by id.
// Callers hold s.mu.
func (s *MemoryStore) sorted(keep func(*models.Contact) bool) []*models.Contact {
	out := make([]*models.Contact, 0)
	for _, c := range s.contacts {
		if keep(c) {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// memoryView implements ContactRepository on a store whose lock is held.
type memoryView struct {
	s *MemoryStore
}

func (v memoryView) FindByEmailOrPhone(ctx context.Context, email, phoneNumber *string) ([]*models.Contact, error) {
	if email == nil && phoneNumber == nil {
		return nil, ErrNoEmailOrPhone
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.s.sorted(func(c *models.Contact) bool {
		if c.DeletedAt != nil {
			return false
		}
		return equalPtr(email, c.Email) || equalPtr(phoneNumber, c.PhoneNumber)
	}), nil
}

func (v memoryView) FindClusterByPrimaryIDs(ctx context.Context, ids []int64) ([]*models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return v.s.sorted(func(c *models.Contact) bool {
		if c.DeletedAt != nil {
			return false
		}
		if _, ok := want[c.ID]; ok {
			return true
		}
		if c.LinkedID != nil {
			_, ok := want[*c.LinkedID]
			return ok
		}
		return false
	}), nil
}

func (v memoryView) FindByID(ctx context.Context, id int64) (*models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := v.s.contacts[id]
	if !ok || c.DeletedAt != nil {
		return nil, nil
	}
	return clone(c), nil
}

func (v memoryView) Create(ctx context.Context, nc models.NewContact) (*models.Contact, error) {
	if nc.Email == nil && nc.PhoneNumber == nil {
		return nil, ErrNoEmailOrPhone
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := v.s.now()
	c := &models.Contact{
		ID:             v.s.nextID,
		Email:          copyString(nc.Email),
		PhoneNumber:    copyString(nc.PhoneNumber),
		LinkedID:       copyInt64(nc.LinkedID),
		LinkPrecedence: nc.LinkPrecedence,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	v.s.contacts[c.ID] = c
	v.s.nextID++
	return clone(c), nil
}

func (v memoryView) Update(ctx context.Context, id int64, u models.ContactUpdate) (*models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := v.s.contacts[id]
	if !ok || c.DeletedAt != nil {
		return nil, fmt.Errorf("contact %d not found", id)
	}
	if u.LinkedID != nil {
		c.LinkedID = copyInt64(u.LinkedID)
	}
	if u.LinkPrecedence != nil {
		c.LinkPrecedence = *u.LinkPrecedence
	}
	c.UpdatedAt = v.s.now()
	return clone(c), nil
}

func equalPtr(want, have *string) bool {
	return want != nil && have != nil && *want == *have
}

func clone(c *models.Contact) *models.Contact {
	out := *c
	out.Email = copyString(c.Email)
	out.PhoneNumber = copyString(c.PhoneNumber)
	out.LinkedID = copyInt64(c.LinkedID)
	if c.DeletedAt != nil {
		t := *c.DeletedAt
		out.DeletedAt = &t
	}
	return &out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt64(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
