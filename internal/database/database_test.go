package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/Chijioke91/Task-Api/internal/database"
	"github.com/Chijioke91/Task-Api/internal/database/dbtest"
	"github.com/Chijioke91/Task-Api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(t *testing.T, db *database.Database, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Ann", Email: email, PasswordHash: "hash"}
	require.NoError(t, db.SaveUser(context.Background(), u))
	return u
}

func TestSaveUser_DuplicateEmail(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	first := newUser(t, db, "a@x.com")
	assert.NotEqual(t, uuid.Nil, first.ID)

	err := db.SaveUser(ctx, &models.User{Name: "Bob", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, database.ErrDuplicateEmail)
}

func TestGetUser_NotFound(t *testing.T) {
	db := dbtest.New(t)

	_, err := db.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = db.FindUserByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestTokens_AddRemove(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := newUser(t, db, "a@x.com")

	require.NoError(t, db.AddToken(ctx, u.ID, "t1"))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, db.AddToken(ctx, u.ID, "t2"))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, db.AddToken(ctx, u.ID, "t3"))

	tokens, err := db.ListTokens(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, tokens)

	removed, err := db.RemoveToken(ctx, u.ID, "t2")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = db.RemoveToken(ctx, u.ID, "t2")
	require.NoError(t, err)
	assert.False(t, removed)

	ok, err := db.HasToken(ctx, u.ID, "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.HasToken(ctx, u.ID, "t2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokens_RemoveExceptAndAll(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := newUser(t, db, "a@x.com")
	other := newUser(t, db, "b@x.com")

	for _, tok := range []string{"t1", "t2", "t3"} {
		require.NoError(t, db.AddToken(ctx, u.ID, tok))
	}
	require.NoError(t, db.AddToken(ctx, other.ID, "o1"))

	removed, err := db.RemoveTokensExcept(ctx, u.ID, "t2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t3"}, removed)

	tokens, err := db.ListTokens(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, tokens)

	removed, err = db.RemoveAllTokens(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, removed)

	tokens, err = db.ListTokens(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	ok, err := db.HasToken(ctx, other.ID, "o1")
	require.NoError(t, err)
	assert.True(t, ok, "other users' sessions must survive")
}

func TestSetAvatar(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := newUser(t, db, "a@x.com")

	require.NoError(t, db.SetAvatar(ctx, u.ID, []byte{1, 2, 3}, ""))
	got, err := db.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.Avatar)
	assert.True(t, got.HasAvatar())

	require.NoError(t, db.SetAvatar(ctx, u.ID, nil, ""))
	got, err = db.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.HasAvatar())

	assert.ErrorIs(t, db.SetAvatar(ctx, uuid.New(), nil, ""), database.ErrNotFound)
}

func TestDeleteUser_Cascades(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := newUser(t, db, "a@x.com")

	require.NoError(t, db.AddToken(ctx, u.ID, "t1"))
	require.NoError(t, db.CreateTask(ctx, &models.Task{Description: "buy milk", OwnerID: u.ID}))

	require.NoError(t, db.DeleteUser(ctx, u.ID))

	_, err := db.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	ok, err := db.HasToken(ctx, u.ID, "t1")
	require.NoError(t, err)
	assert.False(t, ok)

	tasks, err := db.ListTasks(ctx, u.ID, database.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	assert.ErrorIs(t, db.DeleteUser(ctx, u.ID), database.ErrNotFound)
}

func TestTasks_OwnerScopedListing(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := newUser(t, db, "a@x.com")
	other := newUser(t, db, "b@x.com")

	for i, desc := range []string{"c", "a", "b"} {
		task := &models.Task{Description: desc, Completed: i%2 == 0, OwnerID: u.ID}
		require.NoError(t, db.CreateTask(ctx, task))
	}
	foreign := &models.Task{Description: "foreign", OwnerID: other.ID}
	require.NoError(t, db.CreateTask(ctx, foreign))

	all, err := db.ListTasks(ctx, u.ID, database.TaskFilter{SortBy: "description"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Description)
	assert.Equal(t, "c", all[2].Description)

	done := true
	completed, err := db.ListTasks(ctx, u.ID, database.TaskFilter{Completed: &done})
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	page, err := db.ListTasks(ctx, u.ID, database.TaskFilter{SortBy: "description", SortDesc: true, Limit: 1, Skip: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].Description)

	_, err = db.GetTask(ctx, u.ID, foreign.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = db.DeleteTask(ctx, u.ID, foreign.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	deleted, err := db.DeleteTask(ctx, other.ID, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, "foreign", deleted.Description)
}

func TestUpdateUser(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	a := newUser(t, db, "a@x.com")
	b := newUser(t, db, "b@x.com")
	require.NoError(t, db.SetAvatar(ctx, a.ID, []byte{1, 2, 3}, ""))

	a.Name = "Anna"
	a.Age = 31
	require.NoError(t, db.UpdateUser(ctx, a))

	stored, err := db.GetUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", stored.Name)
	assert.Equal(t, 31, stored.Age)
	assert.Equal(t, []byte{1, 2, 3}, stored.Avatar)

	b.Email = "a@x.com"
	assert.ErrorIs(t, db.UpdateUser(ctx, b), database.ErrDuplicateEmail)

	ghost := &models.User{ID: uuid.New(), Name: "Ghost", Email: "g@x.com"}
	assert.ErrorIs(t, db.UpdateUser(ctx, ghost), database.ErrNotFound)
}
