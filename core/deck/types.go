package deck

import "fmt"

// Snapshot is one full point-in-time fetch of the remote board hierarchy.
// Boards carry their stacks, stacks carry their cards. Attachments are not
// part of a snapshot; they are fetched separately per card.
type Snapshot struct {
	Boards []BoardData
}

// UserData is the wire representation of a user, group, or circle.
type UserData struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayname"`
	Type        int    `json:"type"`
}

// LabelData is the wire representation of a board label.
type LabelData struct {
	ID           int64  `json:"id"`
	BoardID      int64  `json:"boardId"`
	ETag         string `json:"ETag"`
	Title        string `json:"title"`
	Color        string `json:"color"`
	LastModified int64  `json:"lastModified"`
}

// AclData is the wire representation of a board access-control entry.
// ACL participants are not guaranteed to appear in the board member list;
// groups are unrolled there while the ACL keeps the group principal itself.
type AclData struct {
	ID               int64    `json:"id"`
	BoardID          int64    `json:"boardId"`
	Participant      UserData `json:"participant"`
	PermissionEdit   bool     `json:"permissionEdit"`
	PermissionShare  bool     `json:"permissionShare"`
	PermissionManage bool     `json:"permissionManage"`
	Owner            bool     `json:"owner"`
}

// PermissionsData holds the current user's permissions on a board.
type PermissionsData struct {
	Read   bool `json:"PERMISSION_READ"`
	Edit   bool `json:"PERMISSION_EDIT"`
	Manage bool `json:"PERMISSION_MANAGE"`
	Share  bool `json:"PERMISSION_SHARE"`
}

// SettingsData holds board settings relevant to the mirror.
type SettingsData struct {
	NotifyDue string `json:"notify-due"`
	Calendar  bool   `json:"calendar"`
}

// AssignmentData wraps an assigned user on a card.
type AssignmentData struct {
	Participant UserData `json:"participant"`
}

// AttachmentInfoData holds the filename parts of an attachment.
type AttachmentInfoData struct {
	Dirname   string `json:"dirname"`
	Filename  string `json:"filename"`
	Extension string `json:"extension"`
}

// AttachmentExtendedData holds attachment metadata.
type AttachmentExtendedData struct {
	Filesize int64              `json:"filesize"`
	Mimetype string             `json:"mimetype"`
	Info     AttachmentInfoData `json:"info"`
}

// AttachmentData is the wire representation of a card attachment.
type AttachmentData struct {
	ID           int64                  `json:"id"`
	CardID       int64                  `json:"cardId"`
	ETag         string                 `json:"ETag"`
	Type         string                 `json:"type"`
	Data         string                 `json:"data"`
	CreatedBy    string                 `json:"createdBy"`
	CreatedAt    int64                  `json:"createdAt"`
	LastModified int64                  `json:"lastModified"`
	DeletedAt    int64                  `json:"deletedAt"`
	ExtendedData AttachmentExtendedData `json:"extendedData"`
}

// CardData is the wire representation of a card.
type CardData struct {
	ID              int64            `json:"id"`
	StackID         int64            `json:"stackId"`
	ETag            string           `json:"ETag"`
	Type            string           `json:"type"`
	Order           int              `json:"order"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Labels          []LabelData      `json:"labels"`
	Archived        bool             `json:"archived"`
	CommentsUnread  int              `json:"commentsUnread"`
	AttachmentCount int              `json:"attachmentCount"`
	Duedate         *string          `json:"duedate"`
	AssignedUsers   []AssignmentData `json:"assignedUsers"`
	Owner           UserData         `json:"owner"`
	LastEditor      *string          `json:"lastEditor"`
	CreatedAt       int64            `json:"createdAt"`
	LastModified    int64            `json:"lastModified"`
	DeletedAt       int64            `json:"deletedAt"`
}

// StackData is the wire representation of a stack. Cards is nil when the
// server omitted the cards key, which means the stack holds no cards.
type StackData struct {
	ID           int64      `json:"id"`
	BoardID      int64      `json:"boardId"`
	ETag         string     `json:"ETag"`
	Title        string     `json:"title"`
	Order        int        `json:"order"`
	Cards        []CardData `json:"cards"`
	LastModified int64      `json:"lastModified"`
	DeletedAt    int64      `json:"deletedAt"`
}

// BoardData is the wire representation of a board. Stacks is populated by
// the client from the per-board stacks endpoint, not by the boards listing.
type BoardData struct {
	ID           int64           `json:"id"`
	ETag         string          `json:"ETag"`
	Title        string          `json:"title"`
	Color        string          `json:"color"`
	Archived     bool            `json:"archived"`
	Shared       int             `json:"shared"`
	Permissions  PermissionsData `json:"permissions"`
	Settings     SettingsData    `json:"settings"`
	Owner        UserData        `json:"owner"`
	Users        []UserData      `json:"users"`
	Labels       []LabelData     `json:"labels"`
	Acl          []AclData       `json:"acl"`
	LastModified int64           `json:"lastModified"`
	DeletedAt    int64           `json:"deletedAt"`

	Stacks []StackData `json:"-"`
}

// Validate checks that every node in the snapshot carries the fields the
// reconciler depends on. It returns an error wrapping ErrMalformedSnapshot
// on the first violation so a bad snapshot is rejected before any part of
// it is applied.
func (s *Snapshot) Validate() error {
	for i := range s.Boards {
		b := &s.Boards[i]
		if b.ID == 0 {
			return fmt.Errorf("%w: board at index %d has no id", ErrMalformedSnapshot, i)
		}
		if b.ETag == "" {
			return fmt.Errorf("%w: board %d has no ETag", ErrMalformedSnapshot, b.ID)
		}
		if b.DeletedAt != 0 {
			continue
		}
		if b.Owner.UID == "" {
			return fmt.Errorf("%w: board %d has no owner", ErrMalformedSnapshot, b.ID)
		}
		for j := range b.Stacks {
			st := &b.Stacks[j]
			if st.ID == 0 {
				return fmt.Errorf("%w: stack at index %d of board %d has no id", ErrMalformedSnapshot, j, b.ID)
			}
			if st.ETag == "" {
				return fmt.Errorf("%w: stack %d has no ETag", ErrMalformedSnapshot, st.ID)
			}
			for k := range st.Cards {
				c := &st.Cards[k]
				if c.ID == 0 {
					return fmt.Errorf("%w: card at index %d of stack %d has no id", ErrMalformedSnapshot, k, st.ID)
				}
				if c.ETag == "" {
					return fmt.Errorf("%w: card %d has no ETag", ErrMalformedSnapshot, c.ID)
				}
				if c.DeletedAt == 0 && c.Owner.UID == "" {
					return fmt.Errorf("%w: card %d has no owner", ErrMalformedSnapshot, c.ID)
				}
			}
		}
	}
	return nil
}
