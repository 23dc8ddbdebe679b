package billing

import (
	"context"
	"sync"

	"github.com/cosanostra/blacklink/app/models"
	"gorm.io/gorm"
)

// memoryRepository implements Repository for tests without a database. The
// mutex mirrors the serialization the real transaction provides.
type memoryRepository struct {
	mu        sync.Mutex
	users     map[string]*models.User
	processed map[string]*models.PaymentEvent
}

func newMemoryRepository(users ...*models.User) *memoryRepository {
	r := &memoryRepository{
		users:     make(map[string]*models.User),
		processed: make(map[string]*models.PaymentEvent),
	}
	for _, u := range users {
		r.users[u.Username] = u
	}
	return r
}

func (r *memoryRepository) GetUserByUsername(username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[models.NormalizeUsername(username)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memoryRepository) SaveUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.Username] = &copied
	return nil
}

func (r *memoryRepository) HasProcessedPayment(provider, paymentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.processed[provider+":"+paymentID]
	return ok, nil
}

func (r *memoryRepository) CommitReconciliation(_ context.Context, user *models.User, event *models.PaymentEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := event.Provider + ":" + event.PaymentID
	if _, ok := r.processed[key]; ok {
		return false, nil
	}
	r.processed[key] = event
	copied := *user
	r.users[user.Username] = &copied
	return true, nil
}

// fakeProvider returns canned payment records keyed by payment id.
type fakeProvider struct {
	payments    map[string]*Payment
	preference  *Preference
	lastPref    *PreferenceRequest
	paymentErr  error
	prefErr     error
	getCalls    int
	createCalls int
}

func (f *fakeProvider) CreatePreference(_ context.Context, pref PreferenceRequest) (*Preference, error) {
	f.createCalls++
	f.lastPref = &pref
	if f.prefErr != nil {
		return nil, f.prefErr
	}
	if f.preference != nil {
		return f.preference, nil
	}
	return &Preference{ID: "pref_test", InitPoint: "https://mp.test/init"}, nil
}

func (f *fakeProvider) GetPayment(_ context.Context, paymentID string) (*Payment, error) {
	f.getCalls++
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}
