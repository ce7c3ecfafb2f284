package accounts

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/cleared-dev/cleared-gl/internal/model"
)

// Registry holds the chart of accounts in insertion order.
// It is not safe for concurrent use; the engine serializes access.
type Registry struct {
	accounts []model.Account
	byID     map[string]int // index into accounts
	byCode   map[string]int
	newID    func() string
}

// NewRegistry creates a Registry from a slice of accounts, typically the
// result of a store load. Later duplicates of an ID or code are dropped.
func NewRegistry(accounts []model.Account) *Registry {
	r := &Registry{
		byID:   make(map[string]int, len(accounts)),
		byCode: make(map[string]int, len(accounts)),
		newID:  uuid.NewString,
	}
	for _, a := range accounts {
		if _, dup := r.byID[a.ID]; dup {
			continue
		}
		if _, dup := r.byCode[a.Code]; dup {
			continue
		}
		r.insert(a)
	}
	return r
}

func (r *Registry) insert(a model.Account) {
	r.byID[a.ID] = len(r.accounts)
	r.byCode[a.Code] = len(r.accounts)
	r.accounts = append(r.accounts, a)
}

// Len returns the number of registered accounts.
func (r *Registry) Len() int {
	return len(r.accounts)
}

// All returns a copy of every account in insertion order.
func (r *Registry) All() []model.Account {
	return slices.Clone(r.accounts)
}

// InitializeIfEmpty seeds the chart when no accounts exist.
// It reports whether seeding happened.
func (r *Registry) InitializeIfEmpty(chart string) bool {
	if len(r.accounts) > 0 {
		return false
	}
	for _, a := range r.Seed(chart) {
		r.insert(a)
	}
	return true
}

// Seed returns the named default chart with fresh IDs, without registering it.
func (r *Registry) Seed(chart string) []model.Account {
	defaults := DefaultChart(chart)
	seeded := make([]model.Account, len(defaults))
	for i, d := range defaults {
		seeded[i] = model.Account{ID: r.newID(), Code: d.Code, Name: d.Name, RootType: d.RootType}
	}
	return seeded
}

// Prepare validates a new account and assigns its ID without registering it,
// so callers can persist before committing with Insert.
func (r *Registry) Prepare(code, name string, rootType model.RootType) (model.Account, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return model.Account{}, fmt.Errorf("%w: code and name are required", model.ErrInvalidAccount)
	}
	if !rootType.Valid() {
		return model.Account{}, fmt.Errorf("%w: root type %q", model.ErrInvalidAccount, rootType)
	}
	if _, dup := r.byCode[code]; dup {
		return model.Account{}, &model.DuplicateCodeError{Code: code}
	}
	return model.Account{ID: r.newID(), Code: code, Name: name, RootType: rootType}, nil
}

// Insert registers an account returned by Prepare.
func (r *Registry) Insert(a model.Account) error {
	if _, dup := r.byCode[a.Code]; dup {
		return &model.DuplicateCodeError{Code: a.Code}
	}
	r.insert(a)
	return nil
}

// AddAccount registers a new account with a fresh ID.
func (r *Registry) AddAccount(code, name string, rootType model.RootType) (model.Account, error) {
	a, err := r.Prepare(code, name, rootType)
	if err != nil {
		return model.Account{}, err
	}
	r.insert(a)
	return a, nil
}

// Get returns an account by ID.
func (r *Registry) Get(id string) (model.Account, error) {
	i, ok := r.byID[id]
	if !ok {
		return model.Account{}, &model.NotFoundError{Kind: "account", ID: id}
	}
	return r.accounts[i], nil
}

// ByCode returns an account by its code.
func (r *Registry) ByCode(code string) (model.Account, error) {
	i, ok := r.byCode[code]
	if !ok {
		return model.Account{}, &model.NotFoundError{Kind: "account", ID: code}
	}
	return r.accounts[i], nil
}

// Exists reports whether an account ID exists.
func (r *Registry) Exists(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Replace overwrites the stored account with the same ID. The caller is
// responsible for enforcing the lifecycle rules around code changes.
func (r *Registry) Replace(a model.Account) error {
	i, ok := r.byID[a.ID]
	if !ok {
		return &model.NotFoundError{Kind: "account", ID: a.ID}
	}
	old := r.accounts[i]
	if a.Code != old.Code {
		if _, dup := r.byCode[a.Code]; dup {
			return &model.DuplicateCodeError{Code: a.Code}
		}
		delete(r.byCode, old.Code)
		r.byCode[a.Code] = i
	}
	r.accounts[i] = a
	return nil
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	CodePrefix string
	RootType   model.RootType
	SortByCode bool
}

// List returns accounts matching f, in insertion order unless f.SortByCode.
func (r *Registry) List(f Filter) []model.Account {
	var result []model.Account
	for _, a := range r.accounts {
		if !a.HasPrefix(f.CodePrefix) {
			continue
		}
		if f.RootType != "" && a.RootType != f.RootType {
			continue
		}
		result = append(result, a)
	}
	if f.SortByCode {
		slices.SortStableFunc(result, func(a, b model.Account) int {
			return CompareCodes(a.Code, b.Code)
		})
	}
	return result
}

// CompareCodes orders dotted codes segment by segment, numerically where both
// segments are numbers: "1.2" < "1.10" < "2".
func CompareCodes(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		var c int
		if aerr == nil && berr == nil {
			c = an - bn
		} else {
			c = strings.Compare(as[i], bs[i])
		}
		if c != 0 {
			if c < 0 {
				return -1
			}
			return 1
		}
	}
	return len(as) - len(bs)
}
