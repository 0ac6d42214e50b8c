package api

import (
	"sort"
	"strconv"
	"sync"
)

// User is one entry of the users store.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Defaults for fields omitted on creation.
const (
	defaultUserNamePrefix = "NewUser"
	defaultUserEmail      = "new@mail.com"
)

// UserStore is an in-memory users table. IDs are assigned monotonically and
// never reused after a delete.
type UserStore struct {
	mu     sync.RWMutex
	users  map[int]User
	nextID int
}

// NewUserStore creates a store holding seed.
func NewUserStore(seed ...User) *UserStore {
	s := &UserStore{
		users:  make(map[int]User, len(seed)),
		nextID: 1,
	}
	for _, u := range seed {
		s.users[u.ID] = u
		if u.ID >= s.nextID {
			s.nextID = u.ID + 1
		}
	}
	return s
}

// SeedUsers returns the initial users.
func SeedUsers() []User {
	return []User{
		{ID: 1, Name: "Alice", Email: "alice@mail.com"},
		{ID: 2, Name: "Bob", Email: "bob@mail.com"},
		{ID: 3, Name: "Charlie", Email: "charlie@mail.com"},
	}
}

// List returns all users ordered by id.
func (s *UserStore) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *UserStore) Get(id int) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	return u, ok
}

// Create stores a new user. An empty name becomes NewUser<id> and an empty
// email new@mail.com.
func (s *UserStore) Create(name, email string) User {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	if name == "" {
		name = defaultUserNamePrefix + strconv.Itoa(id)
	}
	if email == "" {
		email = defaultUserEmail
	}
	u := User{ID: id, Name: name, Email: email}
	s.users[id] = u
	return u
}

// Delete removes a user and reports whether it existed.
func (s *UserStore) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return false
	}
	delete(s.users, id)
	return true
}

func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
