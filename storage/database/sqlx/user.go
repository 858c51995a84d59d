package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

type userRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	PictureURL string    `db:"picture_url"`
	LastLogin  null.Time `db:"last_login"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (repo userRepository) row(usr user.User) userRow {
	return userRow{
		ID:         usr.ID,
		Name:       usr.Name,
		Email:      usr.Email,
		PictureURL: usr.PictureURL,
		LastLogin:  null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
		CreatedAt:  usr.CreatedAt.UTC(),
		UpdatedAt:  usr.UpdatedAt.UTC(),
	}
}

func (repo userRepository) unrow(r userRow) user.User {
	return user.User{
		ID:         r.ID,
		Name:       r.Name,
		Email:      r.Email,
		PictureURL: r.PictureURL,
		LastLogin:  r.LastLogin.Time,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `
		INSERT INTO "user" (id, name, email, picture_url, last_login, created_at, updated_at)
		VALUES (:id, :name, :email, :picture_url, :last_login, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, repo.row(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context, ordering ...core.DBOrdering) ([]user.User, error) {
	q := `SELECT * FROM "user"`
	if len(ordering) > 0 {
		ords := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			ords = append(ords, ord.String())
		}
		q += " ORDER BY " + strings.Join(ords, ", ")
	}

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, repo.unrow(r))
	}
	return users, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var r userRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return repo.unrow(r), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var r userRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM "user" WHERE email = $1`, email); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by email")
	}
	return repo.unrow(r), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.UpdatedAt = time.Now().UTC()
	const q = `
		UPDATE "user"
		SET name = :name, email = :email, picture_url = :picture_url,
		    last_login = :last_login, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, repo.row(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
