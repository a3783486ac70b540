package handlers

import (
	"context"

	"github.com/takopi/backend/internal/models"
	"github.com/takopi/backend/internal/repositories"
)

// ContentResponse is a listing as seen by one viewer.
type ContentResponse struct {
	models.Content
	Owner       *models.UserCompact `json:"owner,omitempty"`
	IsLiked     bool                `json:"is_liked"`
	IsPurchased bool                `json:"is_purchased"`
}

// contentViews attaches owners and per-viewer flags to listings.
type contentViews struct {
	users     repositories.UserRepository
	likes     repositories.LikeRepository
	purchases repositories.PurchaseRepository
}

// canDownload reports whether viewerID may see the model file of c.
func canDownload(c *models.Content, viewerID uint, purchased bool) bool {
	if viewerID != 0 && c.OwnerID == viewerID {
		return true
	}
	return c.IsPublished() && (c.IsFree() || purchased)
}

func (v contentViews) build(ctx context.Context, viewerID uint, contents []models.Content) ([]ContentResponse, error) {
	out := make([]ContentResponse, 0, len(contents))
	if len(contents) == 0 {
		return out, nil
	}

	ids := make([]string, len(contents))
	ownerSet := make(map[uint]struct{})
	ownerIDs := make([]uint, 0, len(contents))
	for i, c := range contents {
		ids[i] = c.ID.Hex()
		if _, ok := ownerSet[c.OwnerID]; !ok {
			ownerSet[c.OwnerID] = struct{}{}
			ownerIDs = append(ownerIDs, c.OwnerID)
		}
	}

	owners, err := v.users.GetUsersByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	liked := map[string]bool{}
	purchased := map[string]bool{}
	if viewerID != 0 {
		if liked, err = v.likes.GetLikedContentIDs(ctx, viewerID, ids); err != nil {
			return nil, err
		}
		if purchased, err = v.purchases.GetPurchasedContentIDs(ctx, viewerID, ids); err != nil {
			return nil, err
		}
	}

	for i, c := range contents {
		resp := ContentResponse{
			Content:     c,
			IsLiked:     liked[ids[i]],
			IsPurchased: purchased[ids[i]],
		}
		if owner, ok := owners[c.OwnerID]; ok {
			compact := owner.ToCompact()
			resp.Owner = &compact
		}
		if !canDownload(&c, viewerID, resp.IsPurchased) {
			resp.ModelURL = ""
		}
		out = append(out, resp)
	}
	return out, nil
}

func (v contentViews) one(ctx context.Context, viewerID uint, c *models.Content) (ContentResponse, error) {
	views, err := v.build(ctx, viewerID, []models.Content{*c})
	if err != nil {
		return ContentResponse{}, err
	}
	return views[0], nil
}
