package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPoolIntern(t *testing.T) {
	pool := NewUserPool()

	alice := pool.Intern("alice", "Alice", UserKindUser)
	again := pool.Intern("alice", "Alice A.", UserKindUser)

	assert.Same(t, alice, again)
	assert.Equal(t, "Alice A.", alice.Name, "re-encounter refreshes display data")
	assert.Equal(t, 1, pool.Len())
}

func TestUserPoolLookupStubsUnknown(t *testing.T) {
	pool := NewUserPool()

	ghost := pool.Lookup("ghost")
	assert.Equal(t, "ghost", ghost.Name)

	// A later full encounter upgrades the stub in place.
	interned := pool.Intern("ghost", "Casper", UserKindUser)
	assert.Same(t, ghost, interned)
	assert.Equal(t, "Casper", ghost.Name)
}

func TestUserPoolMarshalSorted(t *testing.T) {
	pool := NewUserPool()
	pool.Intern("zoe", "Zoe", UserKindUser)
	pool.Intern("abe", "Abe", UserKindUser)

	body, err := json.Marshal(pool)
	require.NoError(t, err)

	var users []struct {
		UID string `json:"uid"`
	}
	require.NoError(t, json.Unmarshal(body, &users))
	require.Len(t, users, 2)
	assert.Equal(t, "abe", users[0].UID)
	assert.Equal(t, "zoe", users[1].UID)
}

func TestAttachmentFullName(t *testing.T) {
	a := &Attachment{Dir: ".", Name: "notes", Ext: "txt"}
	assert.Equal(t, "./notes.txt", a.FullName())
}

func TestCardOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, (&Card{}).Overdue(now), "no due date means never overdue")
	assert.True(t, (&Card{Due: &past}).Overdue(now))
	assert.False(t, (&Card{Due: &future}).Overdue(now))
}

func TestCardLabelAndAssigneeLookup(t *testing.T) {
	c := &Card{
		Labels:    []*Label{{Title: "urgent"}},
		Assignees: []*User{{UID: "alice"}},
	}
	assert.True(t, c.HasLabel("urgent"))
	assert.False(t, c.HasLabel("later"))
	assert.True(t, c.IsAssigned("alice"))
	assert.False(t, c.IsAssigned("bob"))
}

func TestCardAttachmentByPath(t *testing.T) {
	a := &Attachment{Dir: "docs", Name: "spec", Ext: "pdf"}
	c := &Card{Attachments: []*Attachment{a}}
	assert.Same(t, a, c.Attachment("docs/spec.pdf"))
	assert.Nil(t, c.Attachment("docs/missing.pdf"))
}

func TestOrderedCardsStable(t *testing.T) {
	first := &Card{ID: 1, Order: 2}
	second := &Card{ID: 2, Order: 1}
	third := &Card{ID: 3, Order: 2}
	s := &Stack{Cards: []*Card{first, second, third}}

	ordered := s.OrderedCards()
	require.Len(t, ordered, 3)
	assert.Same(t, second, ordered[0])
	// Equal order indexes keep appearance order.
	assert.Same(t, first, ordered[1])
	assert.Same(t, third, ordered[2])

	// The stack's own slice is untouched.
	assert.Same(t, first, s.Cards[0])
}

func TestOrderedStacks(t *testing.T) {
	b := &Board{Stacks: []*Stack{{ID: 1, Order: 5}, {ID: 2, Order: 1}}}
	ordered := b.OrderedStacks()
	assert.Equal(t, int64(2), ordered[0].ID)
	assert.Equal(t, int64(1), ordered[1].ID)
}

func TestBoardCanEdit(t *testing.T) {
	b := &Board{Acl: []*Acl{
		{Principal: &User{UID: "alice"}, Edit: true},
		{Principal: &User{UID: "bob"}, Edit: false},
	}}
	assert.True(t, b.CanEdit("alice"))
	assert.False(t, b.CanEdit("bob"))
	assert.False(t, b.CanEdit("carol"))
}

func TestTreeLookups(t *testing.T) {
	card := &Card{ID: 100}
	tree := &Tree{
		Boards: []*Board{{ID: 1, Stacks: []*Stack{{ID: 10, Cards: []*Card{card}}}}},
		Users:  NewUserPool(),
	}

	assert.Same(t, card, tree.Card(100))
	assert.Nil(t, tree.Card(999))
	assert.NotNil(t, tree.Board(1))
	assert.Nil(t, tree.Board(2))
	assert.Equal(t, 1, tree.CardCount())
}

func TestDueCardsSorted(t *testing.T) {
	now := time.Now()
	early := now.Add(time.Hour)
	late := now.Add(2 * time.Hour)

	cards := []*Card{
		{ID: 3, Due: &late},
		{ID: 2, Due: &early},
		{ID: 1, Due: &early},
		{ID: 4}, // no due date, excluded
	}
	tree := &Tree{
		Boards: []*Board{{ID: 1, Stacks: []*Stack{{ID: 10, Cards: cards}}}},
		Users:  NewUserPool(),
	}

	due := tree.DueCards()
	require.Len(t, due, 3)
	assert.Equal(t, int64(1), due[0].ID, "equal due times tie-break on card id")
	assert.Equal(t, int64(2), due[1].ID)
	assert.Equal(t, int64(3), due[2].ID)
}
