package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPost_ToggleHelperRespectsCapacity(t *testing.T) {
	p := &Post{ID: "p", PeopleCount: 2, PostStatus: PostStatusActive}

	added, ok := p.ToggleHelper("a")
	assert.True(t, added)
	assert.True(t, ok)
	assert.Equal(t, PostStatusActive, p.PostStatus)

	added, ok = p.ToggleHelper("b")
	assert.True(t, added)
	assert.True(t, ok)
	assert.Equal(t, PostStatusClosed, p.PostStatus)

	_, ok = p.ToggleHelper("c")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, p.HelperIDs)

	added, ok = p.ToggleHelper("a")
	assert.False(t, added)
	assert.True(t, ok)
	assert.Equal(t, []string{"b"}, p.HelperIDs)
	assert.Equal(t, PostStatusActive, p.PostStatus)
}

func TestPost_AddBuyerOnce(t *testing.T) {
	p := &Post{}

	assert.True(t, p.AddBuyer("b1"))
	assert.False(t, p.AddBuyer("b1"))
	assert.Equal(t, []string{"b1"}, p.BuyerIDs)
}

func TestNotificationSubscription_Deliverable(t *testing.T) {
	assert.True(t, NotificationSubscription{Token: "t", Enabled: true}.Deliverable())
	assert.False(t, NotificationSubscription{Token: "t"}.Deliverable())
	assert.False(t, NotificationSubscription{Enabled: true}.Deliverable())
}
