package handlers

import (
	"testing"
	"time"

	"quill/internal/acl"
	"quill/internal/models"
	"quill/internal/services"

	"github.com/stretchr/testify/assert"
)

func capability(role acl.Role) acl.Can {
	return acl.NewCapability(acl.Default, role)
}

func TestEventVisibleContent(t *testing.T) {
	published := services.Event{Resource: acl.ResourceContent, ID: "c1", OwnerID: "author-2", Status: models.ContentStatusPublished}
	own := services.Event{Resource: acl.ResourceContent, ID: "c2", OwnerID: "author-1", Status: models.ContentStatusDraft}
	private := services.Event{Resource: acl.ResourceContent, ID: "c3", OwnerID: "author-2", Status: models.ContentStatusPrivate}

	assert.False(t, eventVisible(capability(acl.RoleSubscriber), "sub-1", published))
	assert.True(t, eventVisible(capability(acl.RoleAuthor), "author-1", own))
	assert.False(t, eventVisible(capability(acl.RoleAuthor), "author-1", published))
	assert.True(t, eventVisible(capability(acl.RoleEditor), "editor-1", published))
	assert.True(t, eventVisible(capability(acl.RoleEditor), "editor-1", private))
	assert.False(t, eventVisible(acl.Deny, "editor-1", published))
}

func TestEventVisibleMedia(t *testing.T) {
	event := services.Event{Resource: acl.ResourceMedia, ID: "m1", OwnerID: "author-1"}

	assert.True(t, eventVisible(capability(acl.RoleAuthor), "author-1", event))
	assert.False(t, eventVisible(capability(acl.RoleAuthor), "author-2", event))
	assert.True(t, eventVisible(capability(acl.RoleAdmin), "admin-1", event))
	assert.False(t, eventVisible(capability(acl.RoleGuest), "", services.Event{Resource: acl.ResourceMedia}))
}

func TestEventVisibleOtherResources(t *testing.T) {
	tests := []struct {
		role     acl.Role
		resource acl.Resource
		want     bool
	}{
		{acl.RoleGuest, acl.ResourceMenus, true},
		{acl.RoleGuest, acl.ResourceMenuItems, true},
		{acl.RoleEditor, acl.ResourceUsers, false},
		{acl.RoleAdmin, acl.ResourceUsers, true},
		{acl.RoleAuthor, acl.ResourceTaxonomies, true},
		{acl.RoleSubscriber, acl.ResourceTaxonomies, false},
		{acl.RoleAuthor, acl.ResourceRevisions, false},
		{acl.RoleEditor, acl.ResourceRevisions, true},
		{acl.RoleEditor, acl.ResourceOrganizations, false},
		{acl.RoleAdmin, acl.ResourceOrganizations, true},
		{acl.RoleEditor, acl.ResourceOptions, false},
		{acl.RoleAdmin, acl.ResourceOptions, true},
		{acl.RoleAdmin, acl.ResourceAuth, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.resource), func(t *testing.T) {
			event := services.Event{Resource: tt.resource, ID: "x"}
			assert.Equal(t, tt.want, eventVisible(capability(tt.role), "caller", event))
		})
	}
}

func TestMatchOrigin(t *testing.T) {
	assert.True(t, matchOrigin("https://cms.example.com", "https://cms.example.com"))
	assert.True(t, matchOrigin("https://cms.example.com", "*.example.com"))
	assert.True(t, matchOrigin("http://a.b.example.com:8080", "*.example.com"))
	assert.True(t, matchOrigin("https://example.com", "*.example.com"))
	assert.False(t, matchOrigin("https://evil-example.com", "*.example.com"))
	assert.False(t, matchOrigin("https://example.com.evil.io", "*.example.com"))
	assert.False(t, matchOrigin("https://cms.example.com", "https://admin.example.com"))
}

func TestWantsPublish(t *testing.T) {
	published := models.ContentStatusPublished
	draft := models.ContentStatusDraft
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	later := at.Add(time.Hour)

	assert.True(t, wantsPublish(nil, &ContentRequest{Status: &published}))
	assert.False(t, wantsPublish(nil, &ContentRequest{Status: &draft}))
	assert.False(t, wantsPublish(nil, &ContentRequest{}))
	assert.True(t, wantsPublish(nil, &ContentRequest{Status: &draft, PublishedAt: &at}))

	current := &models.Content{Status: models.ContentStatusPublished, PublishedAt: &at}
	assert.False(t, wantsPublish(current, &ContentRequest{Status: &published}))
	assert.False(t, wantsPublish(current, &ContentRequest{PublishedAt: &at}))
	assert.True(t, wantsPublish(current, &ContentRequest{PublishedAt: &later}))

	unpublished := &models.Content{Status: models.ContentStatusDraft}
	assert.True(t, wantsPublish(unpublished, &ContentRequest{Status: &published}))
}

func TestOptionalFormValues(t *testing.T) {
	assert.Nil(t, optionalString(""))
	assert.Equal(t, "alt", *optionalString("alt"))

	assert.Nil(t, optionalInt(""))
	assert.Nil(t, optionalInt("abc"))
	assert.Nil(t, optionalInt("-3"))
	assert.Nil(t, optionalInt("0"))
	assert.Equal(t, 640, *optionalInt("640"))
}
