package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-sync/internal/domain"
	"github.com/spec-kit/ticket-sync/internal/feed"
	"github.com/spec-kit/ticket-sync/internal/repository"
)

// fakeTicketRepo is an in-memory repository.TicketRepository that applies
// the filter fields the service tests exercise.
type fakeTicketRepo struct {
	mu         sync.Mutex
	tickets    []domain.Ticket
	nextSeq    int64
	createErr  func(*domain.Ticket) error
	countCalls []repository.TicketFilter
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		if err := f.createErr(ticket); err != nil {
			return err
		}
	}
	f.nextSeq++
	ticket.ID = f.nextSeq
	ticket.TicketID = fmt.Sprintf("TKT-%06d", f.nextSeq)
	f.tickets = append(f.tickets, *ticket)
	return nil
}

func (f *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tickets {
		if f.tickets[i].ID == ticket.ID {
			f.tickets[i] = *ticket
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeTicketRepo) GetByTicketID(_ context.Context, ticketID string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tickets {
		if f.tickets[i].TicketID == ticketID {
			found := f.tickets[i]
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tickets {
		if f.tickets[i].ExternalKey == key {
			found := f.tickets[i]
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) DeleteAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deleted := int64(len(f.tickets))
	f.tickets = nil
	return deleted, nil
}

func (f *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := f.match(filter)

	offset := filter.Offset
	if offset > len(matched) {
		return nil, nil
	}
	end := offset + filter.Limit
	if filter.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (f *fakeTicketRepo) Count(_ context.Context, filter repository.TicketFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls = append(f.countCalls, filter)
	return int64(len(f.match(filter))), nil
}

func (f *fakeTicketRepo) match(filter repository.TicketFilter) []domain.Ticket {
	contains := func(values []string, v string) bool {
		for _, candidate := range values {
			if candidate == v {
				return true
			}
		}
		return false
	}

	var result []domain.Ticket
	for _, ticket := range f.tickets {
		if len(filter.RequesterEmails) > 0 && !contains(filter.RequesterEmails, ticket.RequesterEmail) {
			continue
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, ticket.Status) {
			continue
		}
		if len(filter.Regions) > 0 && !contains(filter.Regions, ticket.RequesterRegion) {
			continue
		}
		if len(filter.TicketIDs) > 0 && !contains(filter.TicketIDs, ticket.TicketID) {
			continue
		}
		result = append(result, ticket)
	}
	return result
}

// fakeSource is an in-memory feed.Source. A non-nil updateGate holds every
// UpdateStatus call until the gate closes.
type fakeSource struct {
	mu          sync.Mutex
	table       *feed.Table
	fetchErr    error
	updateErr   error
	updateGate  chan struct{}
	updateCalls []string
}

func (f *fakeSource) Fetch(context.Context) (*feed.Table, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.table, nil
}

func (f *fakeSource) UpdateStatus(_ context.Context, externalKey, status string) error {
	if f.updateGate != nil {
		<-f.updateGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, externalKey+"="+status)
	return f.updateErr
}

func (f *fakeSource) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.updateCalls...)
}

// fakeLocker controls run-lock acquisition in tests.
type fakeLocker struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLocker) Acquire(context.Context) (bool, error) {
	f.acquired++
	return !f.held, nil
}

func (f *fakeLocker) Release(context.Context) {
	f.released++
}

// fakePersonRepo is an in-memory repository.PersonRepository.
type fakePersonRepo struct {
	mu      sync.Mutex
	people  []domain.Person
	nextSeq int64
}

func (f *fakePersonRepo) Create(_ context.Context, person *domain.Person) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSeq++
	person.ID = f.nextSeq
	person.PersonID = fmt.Sprintf("%s-%06d", "REQ", f.nextSeq)
	f.people = append(f.people, *person)
	return nil
}

func (f *fakePersonRepo) GetByEmail(_ context.Context, email string) (*domain.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.people {
		if f.people[i].Email == email {
			found := f.people[i]
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}
