package service

import (
	"context"
	"testing"

	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/linkid"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/types"
)

type fakeProResolver struct {
	pro map[string]bool
}

func (f *fakeProResolver) IsProUser(ctx context.Context, userID string) bool {
	return f.pro[userID]
}

type recordingClickRecorder struct {
	linkIDs []string
}

func (r *recordingClickRecorder) RecordClickEvent(ctx context.Context, linkID, userAgent, ipAddress string) {
	r.linkIDs = append(r.linkIDs, linkID)
}

func newPublicFixture() (*PublicService, *fakeUserStore, *fakeLinkStore, *fakeSocialLinkStore, *fakeProResolver, *recordingClickRecorder) {
	users := newFakeUserStore()
	links := newFakeLinkStore()
	socials := newFakeSocialLinkStore()
	pro := &fakeProResolver{pro: map[string]bool{}}
	recorder := &recordingClickRecorder{}
	svc := NewPublicService(users, links, socials, pro, recorder, testLogger())
	return svc, users, links, socials, pro, recorder
}

func TestPublicService_Resolve(t *testing.T) {
	svc, users, links, socials, pro, _ := newPublicFixture()

	users.add(models.User{
		ID:           "user-1",
		PublicLinkID: "abcd2345",
		Username:     "jane",
		DisplayName:  "Jane",
		Theme:        "default",
		ButtonStyle:  "outline",
		IsActive:     true,
	})
	pro.pro["user-1"] = true

	links.add(models.Link{ID: "l1", UserID: "user-1", Title: "Active", DisplayOrder: 0, IsActive: true})
	links.add(models.Link{ID: "l2", UserID: "user-1", Title: "Hidden", DisplayOrder: 1, IsActive: false})
	links.add(models.Link{ID: "l3", UserID: "other", Title: "Foreign", DisplayOrder: 0, IsActive: true})

	_ = socials.Create(context.Background(), &models.SocialLink{UserID: "user-1", Platform: types.PlatformGitHub, URL: "https://github.com/jane", IsActive: true})
	_ = socials.Create(context.Background(), &models.SocialLink{UserID: "user-1", Platform: types.PlatformTwitter, URL: "https://x.com/jane", IsActive: false})

	profile, err := svc.Resolve(context.Background(), "abcd2345")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if profile.Username != "jane" || profile.PublicLinkID != "abcd2345" {
		t.Errorf("profile = %+v", profile)
	}
	if !profile.IsProUser {
		t.Error("IsProUser = false, want true")
	}
	if len(profile.Links) != 1 || profile.Links[0].ID != "l1" {
		t.Errorf("Links = %+v, want only the active owned link", profile.Links)
	}
	if len(profile.SocialLinks) != 1 || profile.SocialLinks[0].Platform != types.PlatformGitHub {
		t.Errorf("SocialLinks = %+v, want only the active one", profile.SocialLinks)
	}
}

func TestPublicService_ResolveHidesInactiveUser(t *testing.T) {
	svc, users, _, _, _, _ := newPublicFixture()

	users.add(models.User{ID: "user-1", PublicLinkID: "abcd2345", Username: "jane", IsActive: false})

	_, err := svc.Resolve(context.Background(), "abcd2345")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("Resolve() error = %v, want not found for inactive user", err)
	}
}

func TestPublicService_ResolveUnknownIdentifier(t *testing.T) {
	svc, _, _, _, _, _ := newPublicFixture()

	_, err := svc.Resolve(context.Background(), "zzzz9999")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("Resolve() error = %v, want not found", err)
	}
}

func TestPublicService_RecordClick(t *testing.T) {
	svc, users, links, _, _, recorder := newPublicFixture()

	users.add(models.User{ID: "user-1", PublicLinkID: "abcd2345", IsActive: true})
	links.add(models.Link{ID: "l1", UserID: "user-1", IsActive: true, ClickCount: 3})

	if err := svc.RecordClick(context.Background(), "abcd2345", "l1", "agent", "203.0.113.9"); err != nil {
		t.Fatalf("RecordClick() error = %v", err)
	}

	if got := links.links["l1"].ClickCount; got != 4 {
		t.Errorf("ClickCount = %d, want 4", got)
	}
	if len(recorder.linkIDs) != 1 || recorder.linkIDs[0] != "l1" {
		t.Errorf("recorded events = %v, want [l1]", recorder.linkIDs)
	}
}

func TestPublicService_RecordClickRejections(t *testing.T) {
	svc, users, links, _, _, _ := newPublicFixture()

	users.add(models.User{ID: "user-1", PublicLinkID: "abcd2345", IsActive: true})
	users.add(models.User{ID: "user-2", PublicLinkID: "wxyz6789", IsActive: true})
	links.add(models.Link{ID: "l1", UserID: "user-1", IsActive: true})
	links.add(models.Link{ID: "l2", UserID: "user-1", IsActive: false})
	links.add(models.Link{ID: "l3", UserID: "user-2", IsActive: true})

	tests := []struct {
		name         string
		publicLinkID string
		linkID       string
	}{
		{"unknown profile", "nope1234", "l1"},
		{"unknown link", "abcd2345", "missing"},
		{"inactive link", "abcd2345", "l2"},
		{"link under another profile", "abcd2345", "l3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.RecordClick(context.Background(), tt.publicLinkID, tt.linkID, "", "")
			if !apperrors.HasCode(err, apperrors.CodeNotFound) {
				t.Errorf("RecordClick() error = %v, want not found", err)
			}
		})
	}

	// None of the rejected attempts may touch a counter
	for id, link := range links.links {
		if link.ClickCount != 0 {
			t.Errorf("link %s ClickCount = %d, want 0", id, link.ClickCount)
		}
	}
}

func TestPublicService_RecordClickIncrementFailureSurfaces(t *testing.T) {
	svc, users, links, _, _, recorder := newPublicFixture()

	users.add(models.User{ID: "user-1", PublicLinkID: "abcd2345", IsActive: true})
	links.add(models.Link{ID: "l1", UserID: "user-1", IsActive: true})
	links.incErr = errEventStoreDown

	err := svc.RecordClick(context.Background(), "abcd2345", "l1", "", "")
	if err == nil {
		t.Fatal("RecordClick() error = nil, want failure when the counter update fails")
	}
	if len(recorder.linkIDs) != 0 {
		t.Errorf("recorded events = %v, want none after counter failure", recorder.linkIDs)
	}
}

// End to end through the codec: a user provisioned from sequence 42 must be
// reachable by the encoded identifier, and a click must land on the
// authoritative counter even while the event log is down.
func TestPublicService_ResolveAndClickViaCodec(t *testing.T) {
	codec, err := linkid.NewCodec()
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}

	publicLinkID, err := codec.Encode(42)
	if err != nil {
		t.Fatalf("Encode(42) error = %v", err)
	}

	users := newFakeUserStore()
	links := newFakeLinkStore()
	events := &fakeClickEventStore{insertErr: errEventStoreDown}
	analytics := NewAnalyticsService(links, events, testLogger())
	svc := NewPublicService(users, links, newFakeSocialLinkStore(), &fakeProResolver{pro: map[string]bool{}}, analytics, testLogger())

	users.add(models.User{ID: "user-42", UserSeq: 42, PublicLinkID: publicLinkID, Username: "deep", IsActive: true})
	links.add(models.Link{ID: "l1", UserID: "user-42", Title: "Answer", URL: "https://example.test", IsActive: true})

	profile, err := svc.Resolve(context.Background(), publicLinkID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if profile.Username != "deep" {
		t.Errorf("Username = %q, want deep", profile.Username)
	}

	if err := svc.RecordClick(context.Background(), publicLinkID, "l1", "agent", "203.0.113.9"); err != nil {
		t.Fatalf("RecordClick() error = %v with failing event log", err)
	}
	if got := links.links["l1"].ClickCount; got != 1 {
		t.Errorf("ClickCount = %d, want 1", got)
	}
}
