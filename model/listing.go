package model

// The listing tables are owned by the listing service. Only the columns
// needed to address a message to a listing's owner are mapped here.

type Housing struct {
	ID      uint64 `gorm:"primaryKey"`
	OwnerID uint64 `gorm:"column:user_id;index"`
	Address string `gorm:"size:500;not null"`
}

func (Housing) TableName() string {
	return "housing"
}

type RoommateRequest struct {
	ID                uint64 `gorm:"primaryKey"`
	OwnerID           uint64 `gorm:"index"`
	PreferredLocation string `gorm:"size:255;not null"`
}

type Buddy struct {
	ID           uint64 `gorm:"primaryKey"`
	OwnerID      uint64 `gorm:"index"`
	ActivityType string `gorm:"size:100;not null"`
}

// ListingOwner is what messaging needs to know about a listing.
type ListingOwner struct {
	Kind    string
	ID      uint64
	OwnerID uint64
	// Detail is the listing's descriptive field: the housing address, the
	// roommate request's preferred location or the buddy activity type.
	Detail string
}

func (o ListingOwner) Related() Related {
	return NewRelated(o.Kind, o.ID)
}
