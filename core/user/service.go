package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/identity"
)

var ErrNotFound = errors.New("user not found")

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context, ordering ...core.DBOrdering) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo    Repository
		dir     *identity.Service
		mailSvc core.EmailService
		conf    *core.Config
		logger  core.Logger
	}
)

func NewService(repo Repository, dir *identity.Service, mailSvc core.EmailService, conf *core.Config, logger core.Logger) *Service {
	return &Service{repo: repo, dir: dir, mailSvc: mailSvc, conf: conf, logger: logger}
}

// SignedIn records a sign-in at the external provider: the profile is created
// on first login and refreshed on every subsequent one, and a directory
// account is ensured alongside it.
func (svc *Service) SignedIn(ctx context.Context, login Login) (User, error) {
	now := time.Now().UTC()

	usr, err := svc.repo.GetUserByID(ctx, login.UID)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return User{}, errors.Wrap(err, "getting user")
		}
		usr = User{
			ID:         login.UID,
			Name:       login.Name,
			Email:      login.Email,
			PictureURL: login.PictureURL,
			LastLogin:  now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if usr, err = svc.repo.CreateUser(ctx, usr); err != nil {
			return User{}, errors.Wrap(err, "creating user")
		}
		svc.sendWelcomeEmail(usr)
	} else {
		usr.Name = login.Name
		usr.Email = login.Email
		usr.PictureURL = login.PictureURL
		usr.LastLogin = now
		if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
			return User{}, errors.Wrap(err, "updating user")
		}
	}

	if _, err = svc.dir.EnsureAccount(ctx, usr.ID, usr.Email); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *Service) sendWelcomeEmail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome to " + svc.conf.AppName,
		TemplateName: "welcome",
		TemplateData: struct{ Name string }{usr.Name},
	})
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx, core.DBOrdering{Field: "created_at"})
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}
