package service

import (
	"context"
	"sort"
	"sync"

	"skyton-bot/internal/models"
	"skyton-bot/internal/repository"
)

// fakeUserStore is an in-memory UserStore safe for concurrent use.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[int64]*models.User

	getErr    error
	createErr error

	// forceCreateLost simulates losing a concurrent create race: the row
	// appears (inserted by the "winner") but CreateIfAbsent reports false.
	forceCreateLost *models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*models.User)}
}

func (f *fakeUserStore) add(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.TelegramID] = &cp
}

func (f *fakeUserStore) get(id int64) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.get(id), nil
}

func (f *fakeUserStore) CreateIfAbsent(_ context.Context, user *models.User) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forceCreateLost != nil {
		cp := *f.forceCreateLost
		f.users[cp.TelegramID] = &cp
		return false, nil
	}
	if _, exists := f.users[user.TelegramID]; exists {
		return false, nil
	}
	cp := *user
	f.users[user.TelegramID] = &cp
	return true, nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, id int64, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := fields["username"]; ok {
		u.Username = v.(string)
	}
	if v, ok := fields["first_name"]; ok {
		u.FirstName = v.(string)
	}
	if v, ok := fields["last_name"]; ok {
		u.LastName = v.(string)
	}
	if v, ok := fields["profile_pic_url"]; ok {
		u.ProfilePicURL = v.(string)
	}
	return nil
}

func (f *fakeUserStore) SetInvitedBy(_ context.Context, id, referrerID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if u.InvitedBy != nil {
		return false, nil
	}
	ref := referrerID
	u.InvitedBy = &ref
	return true, nil
}

func (f *fakeUserStore) AddBalance(_ context.Context, id int64, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Balance += amount
	return nil
}

func (f *fakeUserStore) TopBalances(_ context.Context, limit int) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Balance > out[j].Balance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUserStore) CountUsers(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *fakeUserStore) ListIDs(_ context.Context, afterID int64, limit int) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for id := range f.users {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type refPair struct {
	referrer int64
	invited  int64
}

// fakeReferralStore mirrors the transactional CreditOnce contract against
// the fake user store.
type fakeReferralStore struct {
	mu      sync.Mutex
	users   *fakeUserStore
	pairs   map[refPair]float64
	failFor int // fail the next N CreditOnce calls
	err     error
}

func newFakeReferralStore(users *fakeUserStore) *fakeReferralStore {
	return &fakeReferralStore{users: users, pairs: make(map[refPair]float64)}
}

func (f *fakeReferralStore) CreditOnce(_ context.Context, referrerID, invitedUserID int64, reward float64, spinBonus int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failFor > 0 {
		f.failFor--
		return false, f.err
	}

	pair := refPair{referrer: referrerID, invited: invitedUserID}
	if _, exists := f.pairs[pair]; exists {
		return false, nil
	}

	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	u, ok := f.users.users[referrerID]
	if !ok {
		return false, repository.ErrNotFound
	}
	f.pairs[pair] = reward
	u.Balance += reward
	u.ReferralCount++
	u.Spins += spinBonus
	return true, nil
}

func (f *fakeReferralStore) ListInvited(_ context.Context, referrerID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for pair := range f.pairs {
		if pair.referrer == referrerID {
			ids = append(ids, pair.invited)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeReferralStore) StatsFor(_ context.Context, referrerID int64) (int64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	var earned float64
	for pair, reward := range f.pairs {
		if pair.referrer == referrerID {
			count++
			earned += reward
		}
	}
	return count, earned, nil
}

type notifierCall struct {
	referrerID int64
	newUserID  int64
	reward     float64
}

type fakeNotifier struct {
	mu        sync.Mutex
	referrals []notifierCall
	payments  []notifierCall
}

func (f *fakeNotifier) ReferralCredited(referrerID, newUserID int64, reward float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.referrals = append(f.referrals, notifierCall{referrerID: referrerID, newUserID: newUserID, reward: reward})
}

func (f *fakeNotifier) PaymentReceived(userID int64, amount float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, notifierCall{referrerID: userID, reward: amount})
}

func (f *fakeNotifier) referralCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.referrals)
}
