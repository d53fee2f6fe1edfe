package database

import (
	"context"
	"testing"
	"workspace-server/internal/auth"
	"workspace-server/internal/models"

	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, username string) *models.User {
	t.Helper()
	hashedPassword, err := auth.HashPassword("secretpassword")
	require.NoError(t, err)

	displayName := "User " + username
	user, err := testStore.CreateUser(context.Background(), CreateUserParams{
		Username:     username,
		PasswordHash: hashedPassword,
		DisplayName:  &displayName,
	})
	require.NoError(t, err)
	return user
}

func TestGetUserByUsername(t *testing.T) {
	created := createTestUser(t, "testuser")

	foundUser, err := testStore.GetUserByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	require.NotNil(t, foundUser)

	require.Equal(t, created.ID, foundUser.ID)
	require.Equal(t, "testuser", foundUser.Username)
	require.Equal(t, "User testuser", *foundUser.DisplayName)
	require.True(t, auth.CheckPasswordHash("secretpassword", foundUser.PasswordHash))

	byID, err := testStore.GetUserByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, foundUser, byID)

	nonExistentUser, err := testStore.GetUserByUsername(context.Background(), "nonexistent")
	require.NoError(t, err)
	require.Nil(t, nonExistentUser)
}

func TestCreateUserDuplicate(t *testing.T) {
	createTestUser(t, "dup_user")

	_, err := testStore.CreateUser(context.Background(), CreateUserParams{Username: "dup_user", PasswordHash: "x"})
	require.ErrorIs(t, err, ErrUserAlreadyExists)
}
