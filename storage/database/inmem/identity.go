package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/mwalimu/somo/core/identity"
)

type accountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) identity.Repository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateAccount(_ context.Context, acct identity.Account) (identity.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.accounts[acct.UID] = &acct
	return acct, nil
}

func (repo *accountRepository) GetAccount(_ context.Context, uid string) (identity.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.accounts[uid]; ok {
		return *a, nil
	}
	return identity.Account{}, identity.ErrAccountNotFound
}

func (repo *accountRepository) GetAccountByEmail(_ context.Context, email string) (identity.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, a := range repo.db.accounts {
		if a.Email == email {
			return *a, nil
		}
	}
	return identity.Account{}, identity.ErrAccountNotFound
}

func (repo *accountRepository) QueryAccounts(_ context.Context) ([]identity.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	accts := make([]identity.Account, 0, len(repo.db.accounts))
	for _, a := range repo.db.accounts {
		accts = append(accts, *a)
	}
	sort.Slice(accts, func(i, j int) bool { return accts[i].CreatedAt.Before(accts[j].CreatedAt) })
	return accts, nil
}

func (repo *accountRepository) UpdateAccountEmail(_ context.Context, uid, email string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.accounts[uid]
	if !ok {
		return identity.ErrAccountNotFound
	}
	a.Email = email
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *accountRepository) SetAccountClaims(_ context.Context, uid string, claims identity.ClaimMap) (identity.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.accounts[uid]
	if !ok {
		return identity.Account{}, identity.ErrAccountNotFound
	}
	a.Claims = claims.Clone()
	a.UpdatedAt = time.Now().UTC()
	return *a, nil
}

func (repo *accountRepository) SetAccountDisabled(_ context.Context, uid string, disabled bool) (identity.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.accounts[uid]
	if !ok {
		return identity.Account{}, identity.ErrAccountNotFound
	}
	a.Disabled = disabled
	a.UpdatedAt = time.Now().UTC()
	return *a, nil
}

func (repo *accountRepository) SetAccountValidSince(_ context.Context, uid string, ts time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.accounts[uid]
	if !ok {
		return identity.ErrAccountNotFound
	}
	a.ValidSince = ts
	a.UpdatedAt = time.Now().UTC()
	return nil
}
