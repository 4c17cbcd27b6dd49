package types

import "time"

// HeroBanner is a landing-page banner managed from the admin panel.
type HeroBanner struct {
	ID int `json:"id" db:"id"`

	// BannerImage is the object-storage key of the banner image.
	BannerImage string `json:"banner_image" db:"banner_image"`

	Description string `json:"description" db:"description"`

	// CTAButtons holds the banner's call-to-action buttons.
	CTAButtons CTAButtons `json:"cta_buttons" db:"cta_buttons"`

	// LoopingVideo is the object-storage key of an optional background video.
	LoopingVideo string `json:"looping_video,omitempty" db:"looping_video"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CTAButtons pairs the two call-to-action buttons rendered on a banner.
type CTAButtons struct {
	PlayNow      CTAButton `json:"play_now"`
	WatchTrailer CTAButton `json:"watch_trailer"`
}

// CTAButton is a labelled link.
type CTAButton struct {
	Text string `json:"text"`
	Link string `json:"link"`
}
