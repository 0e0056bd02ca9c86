package service

import (
	"context"

	"github.com/sakif/bookfinder/internal/apperror"
	"github.com/sakif/bookfinder/internal/auth"
	"github.com/sakif/bookfinder/internal/model"
)

// PostOwnerLookup loads only the owner of a post.
type PostOwnerLookup interface {
	PostAuthorID(ctx context.Context, id string) (string, error)
}

// UserLookup resolves a username.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// OwnershipGuard checks that the requester may mutate a resource. It only
// reads; callers must await it before performing the mutation.
type OwnershipGuard struct {
	posts PostOwnerLookup
	users UserLookup
}

func NewOwnershipGuard(posts PostOwnerLookup, users UserLookup) *OwnershipGuard {
	return &OwnershipGuard{posts: posts, users: users}
}

// AssertPostOwner returns NotFound if the post does not exist and Forbidden
// if it belongs to someone other than userID.
func (g *OwnershipGuard) AssertPostOwner(ctx context.Context, postID, userID string) error {
	if userID == "" {
		return apperror.Unauthorized("authentication required")
	}

	ownerID, err := g.posts.PostAuthorID(ctx, postID)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return apperror.Forbidden("you can only modify your own posts")
	}
	return nil
}

// AssertSelf returns NotFound if username does not exist and Forbidden if
// it is not the requester.
func (g *OwnershipGuard) AssertSelf(ctx context.Context, username string, requester auth.Identity) error {
	if !requester.Present() {
		return apperror.Unauthorized("authentication required")
	}

	user, err := g.users.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user.ID != requester.UserID {
		return apperror.Forbidden("you can only manage your own favorites")
	}
	return nil
}
