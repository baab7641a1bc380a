package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"rebltasks-bot/internal/models"
)

// Memory is a mutex-guarded AccountStore for tests and local runs. It keeps
// the same atomicity contract as the PostgreSQL store: every method is one
// critical section, and callers only ever receive copies.
type Memory struct {
	mu       sync.Mutex
	seq      uint
	accounts map[int64]*models.Account
	credits  []models.CreditEntry
	tasks    map[int64]map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[int64]*models.Account),
		tasks:    make(map[int64]map[string]bool),
	}
}

func (s *Memory) GetOrCreate(_ context.Context, telegramID int64, displayName string) (*models.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acct, ok := s.accounts[telegramID]; ok {
		if acct.Username == "" && displayName != "" {
			acct.Username = displayName
		}
		return copyAccount(acct), false, nil
	}
	s.seq++
	acct := &models.Account{
		ID:         s.seq,
		TelegramID: telegramID,
		Username:   displayName,
		CreatedAt:  time.Now().UTC(),
	}
	s.accounts[telegramID] = acct
	return copyAccount(acct), true, nil
}

func (s *Memory) Get(_ context.Context, telegramID int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[telegramID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAccount(acct), nil
}

func (s *Memory) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *models.Account
	for _, acct := range s.accounts {
		if acct.Username != username {
			continue
		}
		if found == nil || acct.ID < found.ID {
			found = acct
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return copyAccount(found), nil
}

func (s *Memory) SetGateJoined(_ context.Context, telegramID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[telegramID]
	if !ok {
		return ErrNotFound
	}
	acct.JoinedChannel = true
	return nil
}

func (s *Memory) SetDeviceToken(_ context.Context, telegramID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[telegramID]
	if !ok {
		return ErrNotFound
	}
	acct.DeviceToken = token
	return nil
}

func (s *Memory) SetWallet(_ context.Context, telegramID int64, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[telegramID]
	if !ok {
		return ErrNotFound
	}
	acct.WalletAddress = address
	acct.WalletVerified = true
	return nil
}

func (s *Memory) ApplyClaim(_ context.Context, telegramID int64, prev *time.Time, now time.Time, amount int64) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[telegramID]
	if !ok {
		return false, 0, ErrNotFound
	}
	if !sameInstant(acct.LastClaimAt, prev) {
		return false, 0, nil
	}
	claimedAt := now.UTC()
	acct.Balance += amount
	acct.LastClaimAt = &claimedAt
	return true, acct.Balance, nil
}

func (s *Memory) Credit(_ context.Context, telegramID int64, amount int64, reason string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[telegramID]
	if !ok {
		return 0, ErrNotFound
	}
	acct.Balance += amount
	s.credits = append(s.credits, models.CreditEntry{
		AccountID: telegramID,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
	return acct.Balance, nil
}

func (s *Memory) ApplyReferral(_ context.Context, inviteeID, inviterID, bonus int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inviter, ok := s.accounts[inviterID]
	if !ok {
		return false, ErrNotFound
	}
	invitee, ok := s.accounts[inviteeID]
	if !ok || invitee.ReferrerID != nil {
		return false, nil
	}
	ref := inviterID
	invitee.ReferrerID = &ref
	inviter.Balance += bonus
	s.credits = append(s.credits, models.CreditEntry{
		AccountID: inviterID,
		Amount:    bonus,
		Reason:    "referral",
		CreatedAt: time.Now().UTC(),
	})
	return true, nil
}

func (s *Memory) CompleteTask(_ context.Context, telegramID int64, taskID string, reward int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[telegramID]
	if !ok {
		return false, ErrNotFound
	}
	done := s.tasks[telegramID]
	if done == nil {
		done = make(map[string]bool)
		s.tasks[telegramID] = done
	}
	if done[taskID] {
		return false, nil
	}
	done[taskID] = true
	acct.Balance += reward
	s.credits = append(s.credits, models.CreditEntry{
		AccountID: telegramID,
		Amount:    reward,
		Reason:    "task",
		CreatedAt: time.Now().UTC(),
	})
	return true, nil
}

func (s *Memory) TopByBalance(_ context.Context, limit int) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordered := s.orderedLocked()
	if limit >= 0 && limit < len(ordered) {
		ordered = ordered[:limit]
	}
	out := make([]models.Account, 0, len(ordered))
	for _, acct := range ordered {
		out = append(out, *copyAccount(acct))
	}
	return out, nil
}

func (s *Memory) RankOf(_ context.Context, telegramID int64) (int, *models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[telegramID]; !ok {
		return 0, nil, ErrNotFound
	}
	for i, acct := range s.orderedLocked() {
		if acct.TelegramID == telegramID {
			return i + 1, copyAccount(acct), nil
		}
	}
	return 0, nil, ErrNotFound
}

func (s *Memory) ReferralStats(_ context.Context, telegramID int64) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var invited int64
	for _, acct := range s.accounts {
		if acct.ReferrerID != nil && *acct.ReferrerID == telegramID {
			invited++
		}
	}
	var earned int64
	for _, entry := range s.credits {
		if entry.AccountID == telegramID && entry.Reason == "referral" {
			earned += entry.Amount
		}
	}
	return invited, earned, nil
}

func (s *Memory) UnclaimedSince(_ context.Context, dayStart time.Time) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Account
	for _, acct := range s.orderedLocked() {
		if acct.LastClaimAt == nil || acct.LastClaimAt.Before(dayStart) {
			out = append(out, *copyAccount(acct))
		}
	}
	return out, nil
}

// orderedLocked returns the leaderboard ordering: balance descending, earlier
// registrations first on ties. Caller holds the lock.
func (s *Memory) orderedLocked() []*models.Account {
	ordered := make([]*models.Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		ordered = append(ordered, acct)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Balance != ordered[j].Balance {
			return ordered[i].Balance > ordered[j].Balance
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

func copyAccount(acct *models.Account) *models.Account {
	cp := *acct
	if acct.LastClaimAt != nil {
		t := *acct.LastClaimAt
		cp.LastClaimAt = &t
	}
	if acct.ReferrerID != nil {
		r := *acct.ReferrerID
		cp.ReferrerID = &r
	}
	return &cp
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
