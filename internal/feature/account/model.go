package account

import (
	"strings"

	"gorm.io/gorm"

	"haiku-api/internal/domain"
	"haiku-api/internal/repo"
	"haiku-api/pkg/utils"
)

type Account struct {
	domain.Lifecycle
	FirstName string `gorm:"size:64;not null" json:"firstName"`
	LastName  string `gorm:"size:64;not null" json:"lastName"`
	Email     string `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Password  string `gorm:"size:100;not null" json:"-"`
}

func (Account) TableName() string { return "accounts" }

type CreateInput struct {
	FirstName string `json:"firstName" validate:"required,max=64"`
	LastName  string `json:"lastName" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email,max=191"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type UpdateInput struct {
	FirstName *string `json:"firstName" validate:"omitnil,max=64"`
	LastName  *string `json:"lastName" validate:"omitnil,max=64"`
	Email     *string `json:"email" validate:"omitnil,email,max=191"`
	Password  *string `json:"password" validate:"omitnil,min=8,max=72"`
}

type Store = repo.Store[Account, *Account, CreateInput, UpdateInput]

var _ domain.Store[Account, CreateInput, UpdateInput] = (*Store)(nil)

func NewStore(db *gorm.DB, opts ...repo.Option) *Store {
	return repo.New[Account, *Account](db, repo.Def[Account, CreateInput, UpdateInput]{
		Kind:  domain.Account,
		Build: build,
		Patch: patch,
	}, opts...)
}

func build(in CreateInput) (*Account, error) {
	a := &Account{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     normalizeEmail(in.Email),
	}
	switch {
	case a.FirstName == "":
		return nil, domain.Validation("firstName is required")
	case a.LastName == "":
		return nil, domain.Validation("lastName is required")
	case a.Email == "":
		return nil, domain.Validation("email is required")
	case in.Password == "":
		return nil, domain.Validation("password is required")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, domain.Validation("password: %v", err)
	}
	a.Password = hash
	return a, nil
}

func patch(in UpdateInput) (map[string]any, error) {
	first, last := trimmed(in.FirstName), trimmed(in.LastName)
	if first != nil && *first == "" {
		return nil, domain.Validation("firstName must not be blank")
	}
	if last != nil && *last == "" {
		return nil, domain.Validation("lastName must not be blank")
	}
	var email *string
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		if e == "" {
			return nil, domain.Validation("email must not be blank")
		}
		email = &e
	}
	var hash *string
	if in.Password != nil {
		if *in.Password == "" {
			return nil, domain.Validation("password must not be blank")
		}
		h, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, domain.Validation("password: %v", err)
		}
		hash = &h
	}
	return map[string]any{
		"first_name": repo.Coalesce("first_name", first),
		"last_name":  repo.Coalesce("last_name", last),
		"email":      repo.Coalesce("email", email),
		"password":   repo.Coalesce("password", hash),
	}, nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
