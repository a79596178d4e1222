package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// memberSchema is a small schema covering every field type.
var memberSchema = Schema{
	Fields: []FieldSpec{
		{Name: "email", Type: FieldEmail, Required: true},
		{Name: "name", Type: FieldString, Required: true, NotEmpty: true},
		{Name: "updated", Type: FieldDate},
		{Name: "count", Type: FieldInteger},
		{Name: "active", Type: FieldBool},
		{Name: "tags", Type: FieldList},
		{Name: "tier", Type: FieldEnum, EnumValues: []string{"gold", "silver"}, Fallback: "silver"},
	},
	KeyFields: []string{"email"},
	KeyLabel:  "Email",
}

type member struct {
	Email   string
	Name    string
	Updated *time.Time
}

func (m *member) Kind() string { return "members" }
func (m *member) NaturalKey() string { return NormalizeKey(m.Email) }
func (*member) isEntity() {}

func memberDef(mode CommitMode) TableDefinition {
	return TableDefinition{
		Info:           TableInfo{Key: "members", Label: "Members", KeyLabel: "Email"},
		Schema:         memberSchema,
		Mode:           mode,
		FreshnessField: "updated",
		Sample:         []string{"a@example.com", "Ada", "2024-01-01", "1", "yes", "x,y", "gold"},
		Decode: func(v Values) Entity {
			return &member{Email: v.Str("email"), Name: v.Str("name"), Updated: v.Time("updated")}
		},
	}
}

var registerOnce sync.Once

// registerMembers makes the "members" kind available to service tests.
func registerMembers() {
	registerOnce.Do(func() {
		Register(memberDef(ModeFreshUpsert))
	})
}

// fakeStore records saves in memory and can fail chosen keys.
type fakeStore struct {
	mu       sync.Mutex
	existing map[string]Existing
	saved    []Entity
	failKeys map[string]bool
	lookups  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		existing: make(map[string]Existing),
		failKeys: make(map[string]bool),
	}
}

func (s *fakeStore) Lookup(_ context.Context, kind, key string) (Existing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	return s.existing[kind+"/"+key], nil
}

func (s *fakeStore) Save(_ context.Context, _ Actor, e Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failKeys[e.NaturalKey()] {
		return errors.New("duplicate key value violates unique constraint")
	}
	s.saved = append(s.saved, e)
	m, ok := e.(*member)
	if ok {
		s.existing[e.Kind()+"/"+e.NaturalKey()] = Existing{Found: true, UpdatedAt: m.Updated}
	}
	return nil
}

func (s *fakeStore) savedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, len(s.saved))
	for i, e := range s.saved {
		keys[i] = e.NaturalKey()
	}
	return keys
}

// memberCSV builds a file with the member header and one row per line.
func memberCSV(lines ...string) string {
	out := "email,name,updated,count,active,tags,tier\n"
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

func memberLine(email, name, updated string) string {
	return fmt.Sprintf("%s,%s,%s,1,yes,,gold", email, name, updated)
}
