package file

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fauxsmith/fauxsmith/pkg/account"
	"github.com/fauxsmith/fauxsmith/pkg/logging"
	"github.com/fauxsmith/fauxsmith/pkg/mockauth"
	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	ctx := context.Background()

	s := New(path, logging.Nop())
	require.NoError(t, s.Open(ctx))

	acct := &account.Account{ID: "acc1", Handle: "alice", Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, acct.SetPassword("a long password"))
	require.NoError(t, s.Accounts().Create(acct))

	gen := func() string { return "d1" }
	def, err := mockdef.New(gen, "acc1", mockdef.Params{
		Route:    "users",
		IsArray:  true,
		Response: []any{map[string]any{"id": float64(1)}},
	})
	require.NoError(t, err)
	require.NoError(t, s.Definitions().Create(def))

	require.NoError(t, s.AuthDefinitions().Create(&mockauth.Definition{
		ID: "a1", OwnerID: "acc1", Endpoint: "shop",
		Fields: []mockauth.Field{{Name: "email", Type: mockauth.TypeString, Required: true}},
	}))
	require.NoError(t, s.MockUsers().Create(&mockauth.UserRecord{
		ID: "u1", AuthID: "a1", Email: "x@y.com",
		Data: map[string]any{"email": "x@y.com", "password": "pw"},
	}))

	// Close flushes the pending debounced save.
	require.NoError(t, s.Close(ctx))

	reopened := New(path, logging.Nop())
	require.NoError(t, reopened.Open(ctx))
	defer func() { _ = reopened.Close(ctx) }()

	gotAcct, err := reopened.Accounts().GetByHandle("alice")
	require.NoError(t, err)
	assert.Equal(t, "acc1", gotAcct.ID)
	ok, err := gotAcct.PasswordMatches("a long password")
	require.NoError(t, err)
	assert.True(t, ok, "password hash survives persistence")

	gotDef, err := reopened.Definitions().GetByRoute("acc1", "users", "GET")
	require.NoError(t, err)
	assert.True(t, gotDef.IsArray)
	items, ok := gotDef.Items()
	require.True(t, ok)
	assert.Len(t, items, 1)

	gotAuth, err := reopened.AuthDefinitions().GetByEndpoint("acc1", "shop")
	require.NoError(t, err)
	assert.Len(t, gotAuth.Fields, 1)

	gotUser, err := reopened.MockUsers().GetByEmail("a1", "x@y.com")
	require.NoError(t, err)
	assert.Equal(t, "pw", gotUser.Data["password"])
}

func TestOpenMissingFileIsFreshStart(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.json"), logging.Nop())
	require.NoError(t, s.Open(context.Background()))
	assert.Empty(t, s.Definitions().ListByOwner("anyone"))
	require.NoError(t, s.Close(context.Background()))
}

func TestDeleteCascadePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	ctx := context.Background()

	s := New(path, logging.Nop())
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.AuthDefinitions().Create(&mockauth.Definition{ID: "a1", OwnerID: "o", Endpoint: "shop"}))
	require.NoError(t, s.MockUsers().Create(&mockauth.UserRecord{ID: "u1", AuthID: "a1", Email: "x@y.com"}))
	require.NoError(t, s.AuthDefinitions().Delete("a1"))
	require.NoError(t, s.Close(ctx))

	reopened := New(path, logging.Nop())
	require.NoError(t, reopened.Open(ctx))
	defer func() { _ = reopened.Close(ctx) }()

	_, err := reopened.AuthDefinitions().Get("a1")
	assert.Error(t, err)
	_, err = reopened.MockUsers().Get("u1")
	assert.Error(t, err)
}
