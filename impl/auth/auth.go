package auth

import (
	"eventreg/entity"
	"eventreg/lib/apperr"
)

type Database interface {
	GetUser(token string) (*entity.User, error)
}

type Auth struct {
	db     Database
	static map[string]entity.User
}

// New resolves tokens against users from configuration first, then db; db may be nil.
func New(db Database, users []entity.User) *Auth {
	a := &Auth{db: db, static: make(map[string]entity.User, len(users))}
	for _, u := range users {
		if u.Token != "" {
			a.static[u.Token] = u
		}
	}
	return a
}

func (a *Auth) UserByToken(token string) (*entity.User, error) {
	if token == "" {
		return nil, apperr.New(apperr.CodeUnauthorized, "empty token")
	}
	if u, ok := a.static[token]; ok {
		return &u, nil
	}
	if a.db == nil {
		return nil, apperr.New(apperr.CodeUnauthorized, "token not found")
	}
	user, err := a.db.GetUser(token)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Token != token {
		return nil, apperr.New(apperr.CodeUnauthorized, "token not found")
	}
	return user, nil
}
