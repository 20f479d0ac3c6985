package entity

import "time"

const (
	PostStatusActive   = "Active"
	PostStatusInactive = "InActive"
	PostStatusClosed   = "Closed"
)

// Post carries only the fields the messaging core reads: ownership, capacity and the
// buyer/helper sets. Geo and media fields belong to the post CRUD layer.
type Post struct {
	ID          string    `json:"_id" firestore:"id"`
	Title       string    `json:"title" firestore:"title"`
	UserID      string    `json:"userId" firestore:"userId"`
	PeopleCount int       `json:"peopleCount" firestore:"peopleCount"`
	PostStatus  string    `json:"postStatus" firestore:"postStatus"`
	BuyerIDs    []string  `json:"buyerIds" firestore:"buyerIds"`
	HelperIDs   []string  `json:"helperIds" firestore:"helperIds"`
	Latitude    float64   `json:"latitude,omitempty" firestore:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty" firestore:"longitude,omitempty"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// ToggleResult describes the outcome of a helper toggle.
type ToggleResult struct {
	Added     bool     `json:"added"`
	HelperIDs []string `json:"helperIds"`
	Status    string   `json:"postStatus"`
}

func (p *Post) IsHelper(userID string) bool {
	return containsID(p.HelperIDs, userID)
}

// ToggleHelper flips userID in the helper set. Adding fails with ok=false when the set is
// already at PeopleCount. The status is recomputed after every successful flip.
func (p *Post) ToggleHelper(userID string) (added bool, ok bool) {
	if p.IsHelper(userID) {
		p.HelperIDs = removeID(p.HelperIDs, userID)
		added = false
	} else {
		if len(p.HelperIDs) >= p.PeopleCount {
			return false, false
		}
		p.HelperIDs = append(p.HelperIDs, userID)
		added = true
	}

	if len(p.HelperIDs) == p.PeopleCount {
		p.PostStatus = PostStatusClosed
	} else {
		p.PostStatus = PostStatusActive
	}
	return added, true
}

// AddBuyer records userID as interested in the post; it is a no-op when already present.
func (p *Post) AddBuyer(userID string) bool {
	if containsID(p.BuyerIDs, userID) {
		return false
	}
	p.BuyerIDs = append(p.BuyerIDs, userID)
	return true
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
