package service

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"LinkHub_Backend/internal/apperr"
	"LinkHub_Backend/internal/models"
)

// ProfileService reads and mutates profiles.
type ProfileService struct {
	users   UserStore
	avatars AvatarStore
	avatar  AvatarOptions
}

func NewProfileService(users UserStore, avatars AvatarStore, avatar AvatarOptions) *ProfileService {
	return &ProfileService{
		users:   users,
		avatars: avatars,
		avatar:  avatar.withDefaults(),
	}
}

// GetPublicProfile returns the profile of username without email or password hash.
func (s *ProfileService) GetPublicProfile(ctx context.Context, username string) (models.PublicProfile, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return models.PublicProfile{}, storeError(err)
	}
	return user.Public(), nil
}

// GetPrivateProfile returns the owner's view of an authenticated user.
func (s *ProfileService) GetPrivateProfile(user *models.User) models.PrivateProfile {
	return user.Private()
}

// UpdateProfile overwrites exactly the submitted fields. Validation happens before
// anything is applied, so a rejected update leaves user untouched.
func (s *ProfileService) UpdateProfile(ctx context.Context, user *models.User, upd models.ProfileUpdate) (models.PrivateProfile, error) {
	if err := validate(upd); err != nil {
		return models.PrivateProfile{}, err
	}

	updated := *user
	if upd.Bio != nil {
		updated.Bio = *upd.Bio
	}
	if upd.Avatar != nil {
		updated.Avatar = *upd.Avatar
	}
	if upd.Theme != nil {
		updated.Theme = *upd.Theme
	}
	if upd.Links != nil {
		updated.Links = lo.Map(*upd.Links, func(in models.LinkInput, _ int) models.Link {
			return in.ToLink()
		})
	}

	if err := s.users.Save(ctx, &updated); err != nil {
		return models.PrivateProfile{}, storeError(err)
	}
	*user = updated
	return user.Private(), nil
}

// DeleteAccount removes the user permanently. Stored avatars are left in place.
func (s *ProfileService) DeleteAccount(ctx context.Context, user *models.User) error {
	if err := s.users.Delete(ctx, user); err != nil {
		return storeError(err)
	}
	log.Info("account deleted", "user_id", user.ID, "username", user.Username)
	return nil
}

// IncrementLinkClick counts one click on the link at index of username's profile.
func (s *ProfileService) IncrementLinkClick(ctx context.Context, username string, index int) (int, error) {
	if index < 0 {
		return 0, apperr.NewNotFound("Link not found")
	}
	clicks, err := s.users.IncrementLinkClick(ctx, strings.TrimSpace(username), index)
	if err != nil {
		return 0, storeError(err)
	}
	return clicks, nil
}

// AvatarResult is the response of a successful avatar upload.
type AvatarResult struct {
	Avatar string `json:"avatar" example:"/uploads/avatars/5d0b1f2e.png"`
}

// UploadAvatar processes the uploaded image, stores it and points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, user *models.User, upload *AvatarUpload) (AvatarResult, error) {
	if upload == nil || upload.Body == nil {
		return AvatarResult{}, apperr.NewValidation("No file uploaded")
	}

	img, err := processAvatar(upload, s.avatar)
	if err != nil {
		return AvatarResult{}, err
	}

	path, err := s.avatars.Put(ctx, img.key, img.contentType, img.data)
	if err != nil {
		return AvatarResult{}, apperr.NewInternal("failed to store avatar", err)
	}

	updated := *user
	updated.Avatar = path
	if err := s.users.Save(ctx, &updated); err != nil {
		return AvatarResult{}, storeError(err)
	}
	*user = updated

	log.Info("avatar updated", "user_id", user.ID, "avatar", path)
	return AvatarResult{Avatar: path}, nil
}
