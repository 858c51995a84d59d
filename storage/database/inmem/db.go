// Package inmemdb is a map-backed database used by tests and local dev.
package inmemdb

import (
	"sync"

	"github.com/mwalimu/somo/core/identity"
	"github.com/mwalimu/somo/core/lesson"
	"github.com/mwalimu/somo/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users    map[string]*user.User
	accounts map[string]*identity.Account
	plans    map[string]*lesson.LessonPlan
	notes    map[string]*lesson.PracticeNote
}

func NewDB() *DB {
	return &DB{
		users:    make(map[string]*user.User),
		accounts: make(map[string]*identity.Account),
		plans:    make(map[string]*lesson.LessonPlan),
		notes:    make(map[string]*lesson.PracticeNote),
	}
}
