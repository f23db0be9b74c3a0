package service

import (
	"context"
	"strings"
	"testing"

	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/types"
)

func newProfileFixture(planType types.PlanType) (*ProfileService, *fakeUserStore, *fakeImageStore) {
	users := newFakeUserStore()
	images := &fakeImageStore{maxSize: 1 << 20}
	features := NewPlanService(newFakeLinkStore(), newFakeSocialLinkStore(), testLimits())
	svc := NewProfileService(users, images, &fakePlanResolver{planType: planType}, features, "profiles", "backgrounds", testLogger())
	return svc, users, images
}

func strPtr(s string) *string { return &s }

func TestProfileService_UpdateProfile(t *testing.T) {
	svc, users, _ := newProfileFixture(types.PlanFree)
	users.add(models.User{ID: "user-1", Username: "jane", IsActive: true})

	user, err := svc.UpdateProfile(context.Background(), "user-1", "token", &models.ProfileUpdate{
		DisplayName:     strPtr("Jane D"),
		Bio:             strPtr("hello"),
		BackgroundColor: strPtr("#1A2B3C"),
		ButtonStyle:     strPtr(string(types.ButtonOutline)),
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.DisplayName != "Jane D" || user.BackgroundColor != "#1A2B3C" || user.ButtonStyle != "outline" {
		t.Errorf("user = %+v", user)
	}
}

func TestProfileService_UpdateProfileValidation(t *testing.T) {
	svc, users, _ := newProfileFixture(types.PlanFree)
	users.add(models.User{ID: "user-1", IsActive: true})

	tests := []struct {
		name   string
		update *models.ProfileUpdate
	}{
		{"display name too long", &models.ProfileUpdate{DisplayName: strPtr(strings.Repeat("a", maxDisplayNameLength+1))}},
		{"bio too long", &models.ProfileUpdate{Bio: strPtr(strings.Repeat("a", maxBioLength+1))}},
		{"color without hash", &models.ProfileUpdate{BackgroundColor: strPtr("1A2B3C")}},
		{"short color", &models.ProfileUpdate{BackgroundColor: strPtr("#FFF")}},
		{"color with bad digit", &models.ProfileUpdate{BackgroundColor: strPtr("#1A2B3G")}},
		{"unknown button style", &models.ProfileUpdate{ButtonStyle: strPtr("rounded")}},
		{"bad profile image url", &models.ProfileUpdate{ProfileImageURL: strPtr("not a url")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(context.Background(), "user-1", "token", tt.update)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Errorf("UpdateProfile() error = %v, want validation error", err)
			}
		})
	}
}

func TestProfileService_BackgroundImageGatedToFree(t *testing.T) {
	svc, users, _ := newProfileFixture(types.PlanFree)
	users.add(models.User{ID: "user-1", IsActive: true})

	_, err := svc.UpdateProfile(context.Background(), "user-1", "token", &models.ProfileUpdate{
		BackgroundImageURL: strPtr("https://cdn.test/backgrounds/x.png"),
	})
	if !apperrors.HasCode(err, apperrors.CodeFeatureNotAvailable) {
		t.Errorf("UpdateProfile() error = %v, want feature not available", err)
	}

	// Clearing an existing background image needs no plan check
	if _, err := svc.UpdateProfile(context.Background(), "user-1", "token", &models.ProfileUpdate{
		BackgroundImageURL: strPtr(""),
	}); err != nil {
		t.Errorf("UpdateProfile() clearing error = %v, want nil", err)
	}
}

func TestProfileService_BackgroundImageAllowedForPro(t *testing.T) {
	svc, users, _ := newProfileFixture(types.PlanPro)
	users.add(models.User{ID: "user-1", IsActive: true})

	user, err := svc.UpdateProfile(context.Background(), "user-1", "token", &models.ProfileUpdate{
		BackgroundImageURL: strPtr("https://cdn.test/backgrounds/x.png"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.BackgroundImageURL != "https://cdn.test/backgrounds/x.png" {
		t.Errorf("BackgroundImageURL = %q", user.BackgroundImageURL)
	}
}

func TestProfileService_UploadProfileImage(t *testing.T) {
	svc, users, images := newProfileFixture(types.PlanFree)
	users.add(models.User{ID: "user-1", IsActive: true})

	user, err := svc.UploadProfileImage(context.Background(), "user-1", "image/png", []byte("pngdata"))
	if err != nil {
		t.Fatalf("UploadProfileImage() error = %v", err)
	}

	if len(images.uploads) != 1 {
		t.Fatalf("uploads = %v, want one", images.uploads)
	}
	uploaded := images.uploads[0]
	if !strings.HasPrefix(uploaded, "profiles/user-1/profile_user-1_") || !strings.HasSuffix(uploaded, ".png") {
		t.Errorf("object path = %q", uploaded)
	}
	if user.ProfileImageURL == "" || !strings.Contains(user.ProfileImageURL, uploaded) {
		t.Errorf("ProfileImageURL = %q, want the uploaded object's public URL", user.ProfileImageURL)
	}
}

func TestProfileService_UploadProfileImageRejections(t *testing.T) {
	svc, users, images := newProfileFixture(types.PlanFree)
	users.add(models.User{ID: "user-1", IsActive: true})

	if _, err := svc.UploadProfileImage(context.Background(), "user-1", "image/svg+xml", []byte("<svg/>")); err == nil {
		t.Error("UploadProfileImage() with svg error = nil, want rejection")
	}

	big := make([]byte, images.maxSize+1)
	if _, err := svc.UploadProfileImage(context.Background(), "user-1", "image/png", big); err == nil {
		t.Error("UploadProfileImage() over size error = nil, want rejection")
	}

	if len(images.uploads) != 0 {
		t.Errorf("uploads = %v, want none for rejected images", images.uploads)
	}
}

func TestProfileService_UploadBackgroundImage(t *testing.T) {
	freeSvc, freeUsers, freeImages := newProfileFixture(types.PlanFree)
	freeUsers.add(models.User{ID: "user-1", IsActive: true})

	_, err := freeSvc.UploadBackgroundImage(context.Background(), "user-1", "token", "image/png", []byte("pngdata"))
	if !apperrors.HasCode(err, apperrors.CodeFeatureNotAvailable) {
		t.Errorf("UploadBackgroundImage() error = %v, want feature not available", err)
	}
	if len(freeImages.uploads) != 0 {
		t.Errorf("uploads = %v, want none before the plan check", freeImages.uploads)
	}

	proSvc, proUsers, proImages := newProfileFixture(types.PlanPro)
	proUsers.add(models.User{ID: "user-1", IsActive: true})

	user, err := proSvc.UploadBackgroundImage(context.Background(), "user-1", "token", "image/jpeg", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("UploadBackgroundImage() error = %v", err)
	}
	if len(proImages.uploads) != 1 || !strings.HasPrefix(proImages.uploads[0], "backgrounds/user-1/background_user-1_") {
		t.Errorf("uploads = %v", proImages.uploads)
	}
	if user.BackgroundImageURL == "" {
		t.Error("BackgroundImageURL not persisted")
	}
}

func TestProfileService_GetProfile(t *testing.T) {
	svc, users, _ := newProfileFixture(types.PlanFree)
	users.add(models.User{ID: "user-1", Username: "jane", IsActive: true})

	user, err := svc.GetProfile(context.Background(), "user-1")
	if err != nil || user.Username != "jane" {
		t.Errorf("GetProfile() = %+v, %v", user, err)
	}

	_, err = svc.GetProfile(context.Background(), "missing")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("GetProfile() error = %v, want not found", err)
	}
}
