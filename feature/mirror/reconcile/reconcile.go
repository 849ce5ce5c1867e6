package reconcile

import (
	"context"
	"fmt"

	"deck-mirror/core/deck"
	"deck-mirror/feature/mirror/models"

	"go.uber.org/zap"
)

// AttachmentSource fetches the attachment list of a single card. It is the
// only transport operation the reconciler performs itself; full snapshots
// are handed to it by the poller.
type AttachmentSource interface {
	Attachments(ctx context.Context, boardID, stackID, cardID int64) ([]deck.AttachmentData, error)
}

// Reconciler merges fetched snapshots into an existing tree. It preserves
// node identity: a node whose tag is unchanged keeps its instance untouched,
// a node whose tag changed has its own attributes patched in place, and
// children are re-walked on every pass regardless of the parent's tag.
type Reconciler struct {
	source AttachmentSource
	log    *zap.Logger
}

// New creates a reconciler fetching attachments from the given source.
func New(source AttachmentSource, log *zap.Logger) *Reconciler {
	return &Reconciler{source: source, log: log}
}

// Plan holds a validated snapshot together with every attachment list the
// commit phase will need. Building a plan performs all validation and all
// transport I/O up front, so a failed pass never leaves the tree half
// mutated: Commit has no error paths.
type Plan struct {
	snapshot    *deck.Snapshot
	attachments map[int64][]deck.AttachmentData
}

// Plan validates the snapshot against the current tree and prefetches the
// attachments of every new or tag-changed card that reports a nonzero
// attachment count. The tree is only read, never written.
func (r *Reconciler) Plan(ctx context.Context, tree *models.Tree, snap *deck.Snapshot) (*Plan, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	plan := &Plan{
		snapshot:    snap,
		attachments: make(map[int64][]deck.AttachmentData),
	}

	for ib := range snap.Boards {
		bd := &snap.Boards[ib]
		if bd.DeletedAt != 0 {
			continue
		}
		board := tree.Board(bd.ID)

		for is := range bd.Stacks {
			sd := &bd.Stacks[is]
			if sd.DeletedAt != 0 {
				continue
			}
			var stack *models.Stack
			if board != nil {
				stack = board.Stack(sd.ID)
			}

			for ic := range sd.Cards {
				cd := &sd.Cards[ic]
				if cd.DeletedAt != 0 || cd.AttachmentCount == 0 {
					continue
				}
				var old *models.Card
				if stack != nil {
					old = stack.Card(cd.ID)
				}
				if old != nil && old.Tag == cd.ETag {
					continue
				}
				data, err := r.source.Attachments(ctx, bd.ID, sd.ID, cd.ID)
				if err != nil {
					return nil, fmt.Errorf("fetch attachments for card %d: %w", cd.ID, err)
				}
				plan.attachments[cd.ID] = data
			}
		}
	}

	return plan, nil
}

// Apply is the single-call form of Plan followed by Commit. A validation or
// transport error aborts the pass with the tree untouched.
func (r *Reconciler) Apply(ctx context.Context, tree *models.Tree, snap *deck.Snapshot) (bool, error) {
	plan, err := r.Plan(ctx, tree, snap)
	if err != nil {
		return false, err
	}
	return r.Commit(tree, plan), nil
}
