package models

import (
	"encoding/json"
	"sort"
	"time"
)

// UserKind distinguishes the principal types known to Deck.
type UserKind int

const (
	UserKindUser   UserKind = 0
	UserKindGroup  UserKind = 1
	UserKindCircle UserKind = 7
)

// User is a principal (user, group, or circle) referenced anywhere in the
// tree. Instances are interned in the tree's UserPool: every reference to
// the same uid resolves to one shared instance.
type User struct {
	UID  string   `json:"uid"`
	Name string   `json:"displayname"`
	Kind UserKind `json:"type"`
}

// UserPool holds the interned principals of a tree. It is merged into
// across reconciliation passes, never replaced, so instances stay stable
// for the lifetime of the tree.
type UserPool struct {
	users map[string]*User
}

// NewUserPool creates an empty principal pool.
func NewUserPool() *UserPool {
	return &UserPool{users: make(map[string]*User)}
}

// Intern returns the shared instance for the given uid, creating it on
// first sight and refreshing display data on re-encounter.
func (p *UserPool) Intern(uid, name string, kind UserKind) *User {
	if u, ok := p.users[uid]; ok {
		u.Name = name
		u.Kind = kind
		return u
	}
	u := &User{UID: uid, Name: name, Kind: kind}
	p.users[uid] = u
	return u
}

// Lookup returns the shared instance for a uid seen only by reference
// (e.g. a card's last editor). Unknown uids are interned with the uid as
// display name so later references resolve to the same instance.
func (p *UserPool) Lookup(uid string) *User {
	if u, ok := p.users[uid]; ok {
		return u
	}
	u := &User{UID: uid, Name: uid, Kind: UserKindUser}
	p.users[uid] = u
	return u
}

// Get returns the instance for uid if it has been interned.
func (p *UserPool) Get(uid string) (*User, bool) {
	u, ok := p.users[uid]
	return u, ok
}

// Len returns the number of interned principals.
func (p *UserPool) Len() int {
	return len(p.users)
}

// MarshalJSON renders the pool as a list sorted by uid.
func (p *UserPool) MarshalJSON() ([]byte, error) {
	users := make([]*User, 0, len(p.users))
	for _, u := range p.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UID < users[j].UID })
	return json.Marshal(users)
}

// Label is a board label. Cards reference the board's shared instances.
type Label struct {
	ID           int64     `json:"id"`
	BoardID      int64     `json:"board_id"`
	Tag          string    `json:"tag"`
	Title        string    `json:"title"`
	Color        string    `json:"color"`
	LastModified time.Time `json:"last_modified"`
}

// Acl is a board access-control entry. Principal may be a group or circle
// that never appears in the board member list; it is interned into the
// tree's pool regardless.
type Acl struct {
	ID        int64 `json:"id"`
	Principal *User `json:"principal"`
	Edit      bool  `json:"edit"`
	Share     bool  `json:"share"`
	Manage    bool  `json:"manage"`
	Owner     bool  `json:"owner"`
}

// Permissions holds the current user's permissions on a board.
type Permissions struct {
	Read   bool `json:"read"`
	Edit   bool `json:"edit"`
	Manage bool `json:"manage"`
	Share  bool `json:"share"`
}

// Attachment is a file attached to a card.
type Attachment struct {
	ID           int64     `json:"id"`
	CardID       int64     `json:"card_id"`
	Tag          string    `json:"tag"`
	Type         string    `json:"type"`
	Data         string    `json:"data"`
	Size         int64     `json:"size"`
	Mime         string    `json:"mime"`
	Dir          string    `json:"dir"`
	Name         string    `json:"name"`
	Ext          string    `json:"ext"`
	Owner        *User     `json:"owner"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// FullName returns the attachment path as dir/name.ext.
func (a *Attachment) FullName() string {
	return a.Dir + "/" + a.Name + "." + a.Ext
}

// Card is a single item in a stack. Due is nil when the card has no due
// date or its due date failed to parse.
type Card struct {
	ID              int64         `json:"id"`
	StackID         int64         `json:"stack_id"`
	BoardID         int64         `json:"board_id"`
	Tag             string        `json:"tag"`
	Type            string        `json:"type"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Order           int           `json:"order"`
	Labels          []*Label      `json:"labels"`
	Assignees       []*User       `json:"assignees"`
	Owner           *User         `json:"owner"`
	LastEditor      *User         `json:"last_editor,omitempty"`
	Archived        bool          `json:"archived"`
	CommentsUnread  int           `json:"comments_unread"`
	AttachmentCount int           `json:"attachment_count"`
	Attachments     []*Attachment `json:"attachments"`
	Due             *time.Time    `json:"due,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	LastModified    time.Time     `json:"last_modified"`
}

// Overdue reports whether the card carries a due date in the past.
func (c *Card) Overdue(now time.Time) bool {
	return c.Due != nil && c.Due.Before(now)
}

// HasLabel reports whether the card carries a label with the given title.
func (c *Card) HasLabel(title string) bool {
	for _, l := range c.Labels {
		if l.Title == title {
			return true
		}
	}
	return false
}

// IsAssigned reports whether the given uid is assigned to the card.
func (c *Card) IsAssigned(uid string) bool {
	for _, u := range c.Assignees {
		if u.UID == uid {
			return true
		}
	}
	return false
}

// Attachment returns the attachment with the given full path, or nil.
func (c *Card) Attachment(path string) *Attachment {
	for _, a := range c.Attachments {
		if a.FullName() == path {
			return a
		}
	}
	return nil
}

// Stack is an ordered container of cards. Cards holds the cards in
// snapshot appearance order; OrderedCards sorts by order index.
type Stack struct {
	ID           int64     `json:"id"`
	BoardID      int64     `json:"board_id"`
	Tag          string    `json:"tag"`
	Title        string    `json:"title"`
	Order        int       `json:"order"`
	Cards        []*Card   `json:"cards"`
	LastModified time.Time `json:"last_modified"`
}

// Card returns the card with the given id, or nil.
func (s *Stack) Card(id int64) *Card {
	for _, c := range s.Cards {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// OrderedCards returns the cards sorted by order index, ascending. Ties
// keep their order of appearance.
func (s *Stack) OrderedCards() []*Card {
	cards := make([]*Card, len(s.Cards))
	copy(cards, s.Cards)
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].Order < cards[j].Order })
	return cards
}

// NotificationMode is a board's notify-due setting.
type NotificationMode string

const (
	NotifyOff      NotificationMode = "off"
	NotifyAssigned NotificationMode = "assigned"
	NotifyAll      NotificationMode = "all"
)

// Board is a top-level collection of stacks.
type Board struct {
	ID           int64            `json:"id"`
	Tag          string           `json:"tag"`
	Title        string           `json:"title"`
	Color        string           `json:"color"`
	Permissions  Permissions      `json:"permissions"`
	NotifyDue    NotificationMode `json:"notify_due"`
	CalendarSync bool             `json:"calendar_sync"`
	Archived     bool             `json:"archived"`
	Shared       bool             `json:"shared"`
	Owner        *User            `json:"owner"`
	Users        []*User          `json:"users"`
	Acl          []*Acl           `json:"acl"`
	Labels       []*Label         `json:"labels"`
	Stacks       []*Stack         `json:"stacks"`
	LastModified time.Time        `json:"last_modified"`
}

// Stack returns the stack with the given id, or nil.
func (b *Board) Stack(id int64) *Stack {
	for _, s := range b.Stacks {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Label returns the label with the given id, or nil.
func (b *Board) Label(id int64) *Label {
	for _, l := range b.Labels {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// OrderedStacks returns the stacks sorted by order index, ascending.
func (b *Board) OrderedStacks() []*Stack {
	stacks := make([]*Stack, len(b.Stacks))
	copy(stacks, b.Stacks)
	sort.SliceStable(stacks, func(i, j int) bool { return stacks[i].Order < stacks[j].Order })
	return stacks
}

// CanEdit reports whether the given uid may edit the board through its ACL.
func (b *Board) CanEdit(uid string) bool {
	for _, a := range b.Acl {
		if a.Principal.UID == uid && a.Edit {
			return true
		}
	}
	return false
}

// Tree is the local mirror of the remote board hierarchy. It is mutated
// only by the reconciler; readers must treat it as read-only.
type Tree struct {
	Boards []*Board  `json:"boards"`
	Users  *UserPool `json:"users"`
}

// NewTree creates an empty tree with a fresh principal pool.
func NewTree() *Tree {
	return &Tree{Users: NewUserPool()}
}

// Board returns the board with the given id, or nil.
func (t *Tree) Board(id int64) *Board {
	for _, b := range t.Boards {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Card returns the card with the given id from anywhere in the tree, or nil.
func (t *Tree) Card(id int64) *Card {
	for _, b := range t.Boards {
		for _, s := range b.Stacks {
			if c := s.Card(id); c != nil {
				return c
			}
		}
	}
	return nil
}

// Cards returns every card in the tree.
func (t *Tree) Cards() []*Card {
	var cards []*Card
	for _, b := range t.Boards {
		for _, s := range b.Stacks {
			cards = append(cards, s.Cards...)
		}
	}
	return cards
}

// DueCards returns every card carrying a due date, sorted by due time
// ascending with card id as tie break.
func (t *Tree) DueCards() []*Card {
	var cards []*Card
	for _, c := range t.Cards() {
		if c.Due != nil {
			cards = append(cards, c)
		}
	}
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Due.Equal(*cards[j].Due) {
			return cards[i].ID < cards[j].ID
		}
		return cards[i].Due.Before(*cards[j].Due)
	})
	return cards
}

// CardCount returns the total number of cards in the tree.
func (t *Tree) CardCount() int {
	n := 0
	for _, b := range t.Boards {
		for _, s := range b.Stacks {
			n += len(s.Cards)
		}
	}
	return n
}
