package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core/identity"
)

type accountRepository struct {
	db *sqlx.DB
}

var _ identity.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

// claimsJSON maps the claim bag onto the JSONB column.
type claimsJSON identity.ClaimMap

func (c claimsJSON) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

func (c *claimsJSON) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = claimsJSON{}
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	}
	return errors.Errorf("unsupported claims type %T", src)
}

type accountRow struct {
	UID        string     `db:"uid"`
	Email      string     `db:"email"`
	Disabled   bool       `db:"disabled"`
	Claims     claimsJSON `db:"claims"`
	ValidSince time.Time  `db:"valid_since"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

func (repo accountRepository) row(acct identity.Account) accountRow {
	return accountRow{
		UID:        acct.UID,
		Email:      acct.Email,
		Disabled:   acct.Disabled,
		Claims:     claimsJSON(acct.Claims),
		ValidSince: acct.ValidSince.UTC(),
		CreatedAt:  acct.CreatedAt.UTC(),
		UpdatedAt:  acct.UpdatedAt.UTC(),
	}
}

func (repo accountRepository) unrow(r accountRow) identity.Account {
	return identity.Account{
		UID:        r.UID,
		Email:      r.Email,
		Disabled:   r.Disabled,
		Claims:     identity.ClaimMap(r.Claims),
		ValidSince: r.ValidSince,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to identity.ErrAccountNotFound
func (repo accountRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return identity.ErrAccountNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo accountRepository) CreateAccount(ctx context.Context, acct identity.Account) (identity.Account, error) {
	const q = `
		INSERT INTO account (uid, email, disabled, claims, valid_since, created_at, updated_at)
		VALUES (:uid, :email, :disabled, :claims, :valid_since, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, repo.row(acct)); err != nil {
		return identity.Account{}, errors.Wrap(err, "inserting account")
	}
	return acct, nil
}

func (repo accountRepository) GetAccount(ctx context.Context, uid string) (identity.Account, error) {
	var r accountRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM account WHERE uid = $1`, uid); err != nil {
		return identity.Account{}, repo.trapNoRowsErr(err, "getting account")
	}
	return repo.unrow(r), nil
}

func (repo accountRepository) GetAccountByEmail(ctx context.Context, email string) (identity.Account, error) {
	var r accountRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM account WHERE email = $1`, email); err != nil {
		return identity.Account{}, repo.trapNoRowsErr(err, "getting account by email")
	}
	return repo.unrow(r), nil
}

func (repo accountRepository) QueryAccounts(ctx context.Context) ([]identity.Account, error) {
	var rows []accountRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM account ORDER BY created_at ASC`); err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}
	accts := make([]identity.Account, 0, len(rows))
	for _, r := range rows {
		accts = append(accts, repo.unrow(r))
	}
	return accts, nil
}

func (repo accountRepository) UpdateAccountEmail(ctx context.Context, uid, email string) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE account SET email = $2, updated_at = now() WHERE uid = $1`, uid, email)
	if err != nil {
		return errors.Wrap(err, "updating account email")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}

func (repo accountRepository) SetAccountClaims(ctx context.Context, uid string, claims identity.ClaimMap) (identity.Account, error) {
	var r accountRow
	err := repo.db.GetContext(ctx, &r,
		`UPDATE account SET claims = $2, updated_at = now() WHERE uid = $1 RETURNING *`,
		uid, claimsJSON(claims))
	if err != nil {
		return identity.Account{}, repo.trapNoRowsErr(err, "setting account claims")
	}
	return repo.unrow(r), nil
}

func (repo accountRepository) SetAccountDisabled(ctx context.Context, uid string, disabled bool) (identity.Account, error) {
	var r accountRow
	err := repo.db.GetContext(ctx, &r,
		`UPDATE account SET disabled = $2, updated_at = now() WHERE uid = $1 RETURNING *`,
		uid, disabled)
	if err != nil {
		return identity.Account{}, repo.trapNoRowsErr(err, "setting account disabled")
	}
	return repo.unrow(r), nil
}

func (repo accountRepository) SetAccountValidSince(ctx context.Context, uid string, ts time.Time) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE account SET valid_since = $2, updated_at = now() WHERE uid = $1`, uid, ts.UTC())
	if err != nil {
		return errors.Wrap(err, "setting account valid-since")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}
