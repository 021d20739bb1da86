package auth

import "github.com/ayush/simple-blog/backend/internal/models"

// CanModify reports whether the user may mutate a resource owned by ownerID.
// Used by every mutating post endpoint; reads are public and skip this gate.
func CanModify(u *models.User, ownerID int64) bool {
	return u != nil && u.ID == ownerID
}
