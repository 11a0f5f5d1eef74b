package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/jrozner/roomboard/web/apperr"
	"github.com/jrozner/roomboard/web/model"
)

// ListingStore resolves who owns a housing, roommate or buddy listing.
type ListingStore struct {
	db *gorm.DB
}

func NewListingStore(db *gorm.DB) *ListingStore {
	return &ListingStore{db: db}
}

func (s *ListingStore) Owner(ctx context.Context, kind string, id uint64) (model.ListingOwner, error) {
	owner := model.ListingOwner{Kind: kind, ID: id}

	var err error
	switch kind {
	case model.RelatedHousing:
		var housing model.Housing
		err = s.db.WithContext(ctx).First(&housing, "id = ?", id).Error
		owner.OwnerID, owner.Detail = housing.OwnerID, housing.Address
	case model.RelatedRoommate:
		var request model.RoommateRequest
		err = s.db.WithContext(ctx).First(&request, "id = ?", id).Error
		owner.OwnerID, owner.Detail = request.OwnerID, request.PreferredLocation
	case model.RelatedBuddy:
		var buddy model.Buddy
		err = s.db.WithContext(ctx).First(&buddy, "id = ?", id).Error
		owner.OwnerID, owner.Detail = buddy.OwnerID, buddy.ActivityType
	default:
		return model.ListingOwner{}, apperr.ErrUnknownListing
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ListingOwner{}, apperr.ErrListingNotFound
		}

		return model.ListingOwner{}, apperr.Store("unable to load listing", errors.Wrap(err, "listingStore.Owner"))
	}

	// listings can outlive their owner's account
	if owner.OwnerID == 0 {
		return model.ListingOwner{}, apperr.NotFound("listing owner is not available")
	}

	return owner, nil
}
