package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"storefront-backend/internal/model"
)

type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type FirebaseUserInput struct {
	FirebaseUID string
	Name        string
	Email       string

	// LinkByEmail lets an unseen identity claim an existing account with the same email.
	// Only set it when the email itself has been verified.
	LinkByEmail bool
}

type AccountService interface {
	Signup(ctx context.Context, in SignupInput) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	// EnsureFirebaseUser finds the user by identity, links an existing account with the same
	// email, or creates a new one. An account already bound to another identity is never relinked.
	EnsureFirebaseUser(ctx context.Context, in FirebaseUserInput) (*model.User, error)
	Profile(ctx context.Context, identity string) (*model.User, error)
}

func NewAccountService(users model.UserRepository, issuer TokenIssuer, bcryptCost int) AccountService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &accountService{users: users, issuer: issuer, cost: bcryptCost}
}

type accountService struct {
	users  model.UserRepository
	issuer TokenIssuer
	cost   int
}

func (s *accountService) Signup(ctx context.Context, in SignupInput) (*model.User, string, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, "", errors.Wrap(model.ErrInvalidInput, "please provide name, email, and password")
	}
	email := normalizeEmail(in.Email)
	if !validEmail(email) {
		return nil, "", errors.Wrap(model.ErrInvalidInput, "please enter a valid email address")
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, "", errors.Wrap(model.ErrInvalidInput, "user with this email already exists")
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return nil, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, "", errors.Wrap(err, "hash password")
	}
	user := newUser(strings.TrimSpace(in.Name), email)
	user.Password = string(hashed)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, "", errors.Wrap(model.ErrInvalidInput, "user with this email already exists")
		}
		return nil, "", err
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, "", errors.Wrap(err, "issue token")
	}
	log.WithField("userId", user.ID.Hex()).Info("user registered")
	return user, token, nil
}

func (s *accountService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	if email == "" || password == "" {
		return nil, "", errors.Wrap(model.ErrInvalidInput, "please provide email and password")
	}
	invalid := errors.Wrap(model.ErrUnauthenticated, "invalid email or password")

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, "", invalid
	}
	if err != nil {
		return nil, "", err
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", invalid
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, "", errors.Wrap(err, "issue token")
	}
	return user, token, nil
}

func (s *accountService) EnsureFirebaseUser(ctx context.Context, in FirebaseUserInput) (*model.User, error) {
	if in.FirebaseUID == "" || in.Email == "" {
		return nil, errors.Wrap(model.ErrInvalidInput, "please provide firebaseUID and email")
	}

	user, err := s.users.FindByIdentity(ctx, in.FirebaseUID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	user, err = s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if user.FirebaseUID != "" {
			return nil, errors.Wrap(model.ErrConflict, "email is linked to another identity")
		}
		if !in.LinkByEmail {
			return nil, errors.Wrap(model.ErrConflict, "email is already registered")
		}
		user.FirebaseUID = in.FirebaseUID
		if err := s.users.Update(ctx, user); err != nil {
			return nil, errors.WithMessage(err, "link firebase identity")
		}
		log.WithFields(log.Fields{"userId": user.ID.Hex(), "identity": in.FirebaseUID}).Info("linked identity to existing user")
		return user, nil
	case !errors.Is(err, model.ErrUserNotFound):
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user = newUser(name, email)
	user.FirebaseUID = in.FirebaseUID
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"userId": user.ID.Hex(), "identity": in.FirebaseUID}).Info("user created from identity")
	return user, nil
}

func (s *accountService) Profile(ctx context.Context, identity string) (*model.User, error) {
	return s.users.FindByIdentity(ctx, identity)
}

func newUser(name, email string) *model.User {
	return &model.User{
		Name:      name,
		Email:     email,
		Cart:      []model.CartLine{},
		CreatedAt: time.Now().UTC(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || strings.ContainsAny(email, " \t\n") {
		return false
	}
	dot := strings.LastIndex(email, ".")
	return dot > at+1 && dot < len(email)-1
}
