package models

// Profile holds the editable public profile attached to a user.
type Profile struct {
	UserID         int64  `json:"-"`
	ProfilePicture string `json:"profile_picture"`
	Bio            string `json:"bio"`
	Slug           string `json:"slug"`
}
