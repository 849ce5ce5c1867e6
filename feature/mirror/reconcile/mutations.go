package reconcile

import (
	"strings"
	"time"

	"deck-mirror/core/deck"
	"deck-mirror/feature/mirror/models"

	"go.uber.org/zap"
)

// Commit merges the planned snapshot into the tree and reports whether any
// node at any level was added, updated, or removed. It performs no I/O and
// cannot fail; callers serialize Commit against tree readers.
func (r *Reconciler) Commit(tree *models.Tree, plan *Plan) bool {
	changed := false
	present := make(map[int64]struct{})
	next := make([]*models.Board, 0, len(plan.snapshot.Boards))

	for i := range plan.snapshot.Boards {
		bd := &plan.snapshot.Boards[i]
		if bd.DeletedAt != 0 {
			continue
		}
		present[bd.ID] = struct{}{}

		old := tree.Board(bd.ID)
		if old == nil {
			b := &models.Board{ID: bd.ID}
			r.patchBoard(tree.Users, b, bd)
			r.applyStacks(tree.Users, b, bd, plan)
			next = append(next, b)
			changed = true
			r.log.Debug("board added", zap.Int64("board_id", bd.ID), zap.String("title", bd.Title))
			continue
		}

		if old.Tag != bd.ETag {
			r.patchBoard(tree.Users, old, bd)
			changed = true
			r.log.Debug("board updated", zap.Int64("board_id", bd.ID))
		}
		// Children can change independently of the board's own tag.
		if r.applyStacks(tree.Users, old, bd, plan) {
			changed = true
		}
		next = append(next, old)
	}

	for _, b := range tree.Boards {
		if _, ok := present[b.ID]; !ok {
			changed = true
			r.log.Debug("board removed", zap.Int64("board_id", b.ID))
		}
	}

	tree.Boards = next
	return changed
}

// applyStacks reconciles one board's stacks, matched by id. Stacks absent
// from the snapshot or carrying a nonzero deletion timestamp are dropped
// together with all their cards.
func (r *Reconciler) applyStacks(pool *models.UserPool, b *models.Board, bd *deck.BoardData, plan *Plan) bool {
	changed := false
	present := make(map[int64]struct{})
	next := make([]*models.Stack, 0, len(bd.Stacks))

	for i := range bd.Stacks {
		sd := &bd.Stacks[i]
		if sd.DeletedAt != 0 {
			continue
		}
		present[sd.ID] = struct{}{}

		old := b.Stack(sd.ID)
		if old == nil {
			s := &models.Stack{ID: sd.ID, BoardID: b.ID}
			patchStack(s, sd)
			r.applyCards(pool, b, s, sd, plan)
			next = append(next, s)
			changed = true
			r.log.Debug("stack added", zap.Int64("stack_id", sd.ID), zap.Int64("board_id", b.ID))
			continue
		}

		if old.Tag != sd.ETag {
			patchStack(old, sd)
			changed = true
			r.log.Debug("stack updated", zap.Int64("stack_id", sd.ID))
		}
		if r.applyCards(pool, b, old, sd, plan) {
			changed = true
		}
		next = append(next, old)
	}

	for _, s := range b.Stacks {
		if _, ok := present[s.ID]; !ok {
			changed = true
			r.log.Debug("stack removed", zap.Int64("stack_id", s.ID), zap.Int("cards", len(s.Cards)))
		}
	}

	b.Stacks = next
	return changed
}

// applyCards reconciles one stack's cards, matched by id.
func (r *Reconciler) applyCards(pool *models.UserPool, b *models.Board, s *models.Stack, sd *deck.StackData, plan *Plan) bool {
	changed := false
	present := make(map[int64]struct{})
	next := make([]*models.Card, 0, len(sd.Cards))

	for i := range sd.Cards {
		cd := &sd.Cards[i]
		if cd.DeletedAt != 0 {
			continue
		}
		present[cd.ID] = struct{}{}

		old := s.Card(cd.ID)
		if old == nil {
			c := &models.Card{ID: cd.ID, StackID: s.ID, BoardID: b.ID}
			r.patchCard(pool, b, c, cd)
			r.applyAttachments(pool, c, plan.attachments[cd.ID], cd.AttachmentCount)
			next = append(next, c)
			changed = true
			r.log.Debug("card added", zap.Int64("card_id", cd.ID), zap.Int64("stack_id", s.ID))
			continue
		}

		if old.Tag != cd.ETag {
			r.patchCard(pool, b, old, cd)
			r.applyAttachments(pool, old, plan.attachments[cd.ID], cd.AttachmentCount)
			changed = true
			r.log.Debug("card updated", zap.Int64("card_id", cd.ID))
		}
		next = append(next, old)
	}

	for _, c := range s.Cards {
		if _, ok := present[c.ID]; !ok {
			changed = true
			r.log.Debug("card removed", zap.Int64("card_id", c.ID))
		}
	}

	s.Cards = next
	return changed
}

// applyAttachments reconciles one card's attachments from the prefetched
// data, matched by id. Called only for new or tag-changed cards; a zero
// count clears the list without a fetch.
func (r *Reconciler) applyAttachments(pool *models.UserPool, c *models.Card, data []deck.AttachmentData, count int) {
	if count == 0 {
		c.Attachments = nil
		return
	}
	if data == nil {
		return
	}

	next := make([]*models.Attachment, 0, len(data))
	for i := range data {
		ad := &data[i]
		if ad.DeletedAt != 0 {
			continue
		}
		old := attachmentByID(c.Attachments, ad.ID)
		if old == nil {
			old = &models.Attachment{ID: ad.ID, CardID: c.ID}
			patchAttachment(pool, old, ad)
		} else if old.Tag != ad.ETag {
			patchAttachment(pool, old, ad)
		}
		next = append(next, old)
	}
	c.Attachments = next
}

func attachmentByID(attachments []*models.Attachment, id int64) *models.Attachment {
	for _, a := range attachments {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// patchBoard rebuilds the board's own attributes from the snapshot without
// touching its stacks.
func (r *Reconciler) patchBoard(pool *models.UserPool, b *models.Board, bd *deck.BoardData) {
	b.Tag = bd.ETag
	b.Title = bd.Title
	b.Color = bd.Color
	b.Permissions = models.Permissions{
		Read:   bd.Permissions.Read,
		Edit:   bd.Permissions.Edit,
		Manage: bd.Permissions.Manage,
		Share:  bd.Permissions.Share,
	}
	b.NotifyDue = models.NotificationMode(bd.Settings.NotifyDue)
	b.CalendarSync = bd.Settings.Calendar
	b.Archived = bd.Archived
	b.Shared = bd.Shared != 0
	b.LastModified = unixTime(bd.LastModified)

	b.Owner = intern(pool, bd.Owner)
	users := make([]*models.User, 0, len(bd.Users))
	for _, u := range bd.Users {
		users = append(users, intern(pool, u))
	}
	b.Users = users

	b.Labels = mergeLabels(b.Labels, bd.Labels)

	// ACL principals may be groups or circles that never show up in the
	// member list; they are interned into the pool all the same.
	acl := make([]*models.Acl, 0, len(bd.Acl))
	for _, a := range bd.Acl {
		acl = append(acl, &models.Acl{
			ID:        a.ID,
			Principal: intern(pool, a.Participant),
			Edit:      a.PermissionEdit,
			Share:     a.PermissionShare,
			Manage:    a.PermissionManage,
			Owner:     a.Owner,
		})
	}
	b.Acl = acl
}

// mergeLabels matches labels by id, keeping instances with unchanged tags
// so card references stay valid across passes.
func mergeLabels(old []*models.Label, data []deck.LabelData) []*models.Label {
	next := make([]*models.Label, 0, len(data))
	for i := range data {
		ld := &data[i]
		var l *models.Label
		for _, o := range old {
			if o.ID == ld.ID {
				l = o
				break
			}
		}
		if l == nil {
			l = &models.Label{ID: ld.ID}
		}
		if l.Tag != ld.ETag {
			l.Tag = ld.ETag
			l.BoardID = ld.BoardID
			l.Title = ld.Title
			l.Color = ld.Color
			l.LastModified = unixTime(ld.LastModified)
		}
		next = append(next, l)
	}
	return next
}

func patchStack(s *models.Stack, sd *deck.StackData) {
	s.Tag = sd.ETag
	s.Title = sd.Title
	s.Order = sd.Order
	s.LastModified = unixTime(sd.LastModified)
}

// patchCard rebuilds the card's own attributes from the snapshot. Label
// references resolve to the board's shared instances; labels the board
// payload does not carry are kept as detached copies.
func (r *Reconciler) patchCard(pool *models.UserPool, b *models.Board, c *models.Card, cd *deck.CardData) {
	c.Tag = cd.ETag
	c.Type = cd.Type
	c.Title = cd.Title
	c.Description = strings.TrimSpace(cd.Description)
	c.Order = cd.Order
	c.Archived = cd.Archived
	c.CommentsUnread = cd.CommentsUnread
	c.AttachmentCount = cd.AttachmentCount
	c.CreatedAt = unixTime(cd.CreatedAt)
	c.LastModified = unixTime(cd.LastModified)
	c.Due = r.parseDue(cd)

	labels := make([]*models.Label, 0, len(cd.Labels))
	for i := range cd.Labels {
		ld := &cd.Labels[i]
		if l := b.Label(ld.ID); l != nil {
			labels = append(labels, l)
			continue
		}
		labels = append(labels, &models.Label{
			ID:           ld.ID,
			BoardID:      ld.BoardID,
			Tag:          ld.ETag,
			Title:        ld.Title,
			Color:        ld.Color,
			LastModified: unixTime(ld.LastModified),
		})
	}
	c.Labels = labels

	assignees := make([]*models.User, 0, len(cd.AssignedUsers))
	for _, a := range cd.AssignedUsers {
		assignees = append(assignees, intern(pool, a.Participant))
	}
	c.Assignees = assignees

	c.Owner = intern(pool, cd.Owner)
	if cd.LastEditor != nil {
		c.LastEditor = pool.Lookup(*cd.LastEditor)
	} else {
		c.LastEditor = nil
	}
}

func patchAttachment(pool *models.UserPool, a *models.Attachment, ad *deck.AttachmentData) {
	a.Tag = ad.ETag
	a.Type = ad.Type
	a.Data = ad.Data
	a.Size = ad.ExtendedData.Filesize
	a.Mime = ad.ExtendedData.Mimetype
	a.Dir = ad.ExtendedData.Info.Dirname
	a.Name = ad.ExtendedData.Info.Filename
	a.Ext = ad.ExtendedData.Info.Extension
	a.Owner = pool.Lookup(ad.CreatedBy)
	a.CreatedAt = unixTime(ad.CreatedAt)
	a.LastModified = unixTime(ad.LastModified)
}

// parseDue parses the card's due date. An unparseable value degrades to
// "no due date" for that card instead of failing the pass.
func (r *Reconciler) parseDue(cd *deck.CardData) *time.Time {
	if cd.Duedate == nil || *cd.Duedate == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *cd.Duedate)
	if err != nil {
		r.log.Warn("card has unparseable due date, ignoring it",
			zap.Int64("card_id", cd.ID),
			zap.String("duedate", *cd.Duedate),
			zap.Error(err),
		)
		return nil
	}
	u := t.UTC()
	return &u
}

func intern(pool *models.UserPool, d deck.UserData) *models.User {
	name := d.DisplayName
	if name == "" {
		name = d.UID
	}
	return pool.Intern(d.UID, name, models.UserKind(d.Type))
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
