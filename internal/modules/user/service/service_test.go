package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"algomancy.gg/deckhub/internal/entity"
	userDto "algomancy.gg/deckhub/internal/modules/user/dto"
	"algomancy.gg/deckhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	users []*entity.User
}

func (m *memUsers) Create(_ context.Context, user *entity.User) error {
	for _, u := range m.users {
		if u.Subject == user.Subject || strings.EqualFold(u.Username, user.Username) {
			return fmt.Errorf("dup: %w", apperror.ErrConflict)
		}
	}
	user.ID = uuid.New()
	m.users = append(m.users, user)
	return nil
}

func (m *memUsers) find(match func(*entity.User) bool) (*entity.User, error) {
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", apperror.ErrNotFound)
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.ID == id })
}

func (m *memUsers) FindBySubject(_ context.Context, subject string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.Subject == subject })
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return strings.EqualFold(u.Username, username) })
}

func (m *memUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := m.FindByUsername(ctx, username)
	return err == nil, nil
}

func (m *memUsers) Update(context.Context, *entity.User) error { return nil }

func (m *memUsers) CountPublicDecks(context.Context, uuid.UUID) (int64, error) { return 3, nil }

func (m *memUsers) Count(context.Context) (int64, error) { return int64(len(m.users)), nil }

type memStorage struct {
	uploaded []string
	deleted  []string
}

func (s *memStorage) UploadImage(_ context.Context, _ io.Reader, folder, fileName string) (string, error) {
	url := "https://res.cloudinary.com/demo/image/upload/" + folder + "/" + fileName
	s.uploaded = append(s.uploaded, url)
	return url, nil
}

func (s *memStorage) DeleteImage(_ context.Context, url string) error {
	s.deleted = append(s.deleted, url)
	return nil
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "Dark_Mage", SanitizeUsername("  Dark Mage "))
	assert.Equal(t, "fire-lord", SanitizeUsername("fire-lord!!"))
	assert.Equal(t, "player", SanitizeUsername("✨"))
	assert.Equal(t, "player", SanitizeUsername("ab"))
	assert.Len(t, SanitizeUsername(strings.Repeat("x", 80)), maxUsernameLen)
}

func TestEnsureUser_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	repo := &memUsers{}
	svc := NewUserService(repo, nil, nil)

	identity := userDto.Identity{Subject: "auth|1", Username: "Pyro Mancer"}
	first, err := svc.EnsureUser(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "Pyro_Mancer", first.Username)
	assert.Equal(t, entity.RolePlayer, first.Role)

	second, err := svc.EnsureUser(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.users, 1)
}

func TestEnsureUser_UsernameCollision(t *testing.T) {
	ctx := context.Background()
	repo := &memUsers{}
	svc := NewUserService(repo, nil, nil)

	a, err := svc.EnsureUser(ctx, userDto.Identity{Subject: "auth|a", Username: "frost"})
	require.NoError(t, err)
	b, err := svc.EnsureUser(ctx, userDto.Identity{Subject: "auth|b", Username: "Frost"})
	require.NoError(t, err)

	assert.Equal(t, "frost", a.Username)
	assert.NotEqual(t, strings.ToLower(a.Username), strings.ToLower(b.Username))
	assert.True(t, strings.HasPrefix(b.Username, "Frost_"))
}

func TestEnsureUser_MissingSubject(t *testing.T) {
	svc := NewUserService(&memUsers{}, nil, nil)
	_, err := svc.EnsureUser(context.Background(), userDto.Identity{Username: "x"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestEnsureUser_AdminRoleFromProvider(t *testing.T) {
	ctx := context.Background()
	repo := &memUsers{}
	svc := NewUserService(repo, nil, nil)

	u, err := svc.EnsureUser(ctx, userDto.Identity{Subject: "auth|1", Username: "judge"})
	require.NoError(t, err)
	assert.False(t, u.IsAdmin())

	u, err = svc.EnsureUser(ctx, userDto.Identity{Subject: "auth|1", Role: entity.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	repo := &memUsers{}
	svc := NewUserService(repo, nil, nil)
	u, err := svc.EnsureUser(ctx, userDto.Identity{Subject: "auth|1", Username: "terra"})
	require.NoError(t, err)
	u.AchievementXP = 1200

	profile, err := svc.GetProfile(ctx, "TERRA")
	require.NoError(t, err)
	assert.Equal(t, "terra", profile.Username)
	assert.Equal(t, "adept", profile.Status.RankKey)
	assert.Equal(t, int64(3), profile.PublicDecks)

	_, err = svc.GetProfile(ctx, "nobody")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := &memUsers{}
	store := &memStorage{}
	svc := NewUserService(repo, store, nil)

	oldAvatar := "https://res.cloudinary.com/demo/image/upload/avatars/old.webp"
	u, err := svc.EnsureUser(ctx, userDto.Identity{Subject: "auth|1", Username: "aqua", AvatarURL: &oldAvatar})
	require.NoError(t, err)
	_, err = svc.EnsureUser(ctx, userDto.Identity{Subject: "auth|2", Username: "taken"})
	require.NoError(t, err)

	t.Run("username conflict", func(t *testing.T) {
		name := "Taken"
		_, err := svc.UpdateProfile(ctx, u.ID, userDto.UpdateProfileInput{Username: &name}, nil)
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("invalid username", func(t *testing.T) {
		name := "bad$name"
		_, err := svc.UpdateProfile(ctx, u.ID, userDto.UpdateProfileInput{Username: &name}, nil)
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})

	t.Run("avatar replaces old one", func(t *testing.T) {
		res, err := svc.UpdateProfile(ctx, u.ID, userDto.UpdateProfileInput{}, &userDto.AvatarFile{
			Reader:   strings.NewReader("img"),
			FileName: "me.png",
		})
		require.NoError(t, err)
		require.Len(t, store.uploaded, 1)
		assert.Equal(t, store.uploaded[0], *res.AvatarURL)
		assert.Equal(t, []string{oldAvatar}, store.deleted)
	})

	t.Run("non image avatar", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, u.ID, userDto.UpdateProfileInput{}, &userDto.AvatarFile{
			Reader:   strings.NewReader("x"),
			FileName: "notes.txt",
		})
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})
}
