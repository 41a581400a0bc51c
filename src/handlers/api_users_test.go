package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/eventdesk/src/services"
)

func TestAPIUsers_AdminOnly(t *testing.T) {
	app := newTestApp(t)
	token := app.bearer(t, app.member)

	requests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/users", nil},
		{http.MethodGet, fmt.Sprintf("/api/users/%d", app.admin.ID), nil},
		{http.MethodPost, "/api/users", map[string]string{"name": "X", "email": "x@example.com"}},
		{http.MethodPut, fmt.Sprintf("/api/users/%d", app.admin.ID), map[string]string{"name": "X"}},
		{http.MethodDelete, fmt.Sprintf("/api/users/%d", app.admin.ID), nil},
	}

	for _, r := range requests {
		w := app.api(r.method, r.path, r.body, token)
		assertStatusCode(t, w, http.StatusForbidden)
		assertJSONMessage(t, w, services.MsgAccessDenied)
	}
	assert.Equal(t, 2, app.users.Count())
	assert.Zero(t, app.users.CallCount("Create"))
	assert.Zero(t, app.users.CallCount("Delete"))
}

func TestAPIUsers_List(t *testing.T) {
	app := newTestApp(t)

	w := app.api(http.MethodGet, "/api/users", nil, app.bearer(t, app.admin))
	assertStatusCode(t, w, http.StatusOK)
	data, ok := decodeJSON(t, w)["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 2)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAPIUsers_CRUD(t *testing.T) {
	app := newTestApp(t)
	token := app.bearer(t, app.admin)

	w := app.api(http.MethodPost, "/api/users", map[string]interface{}{
		"name":                  "Jane Doe",
		"email":                 "jane@example.com",
		"password":              testPassword,
		"password_confirmation": testPassword,
		"is_admin":              true,
	}, token)
	assertStatusCode(t, w, http.StatusCreated)
	user, ok := decodeJSON(t, w)["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, user["is_admin"])
	id := int64(user["id"].(float64))
	path := fmt.Sprintf("/api/users/%d", id)

	w = app.api(http.MethodGet, path, nil, token)
	assertStatusCode(t, w, http.StatusOK)
	assert.Equal(t, "jane@example.com", decodeJSON(t, w)["email"])

	w = app.api(http.MethodPut, path, map[string]interface{}{
		"name":     "Jane Smith",
		"email":    "jane@example.com",
		"is_admin": 0,
	}, token)
	assertStatusCode(t, w, http.StatusOK)
	updated, err := app.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", updated.Name)
	assert.False(t, updated.IsAdmin)

	w = app.api(http.MethodDelete, path, nil, token)
	assertStatusCode(t, w, http.StatusOK)
	assertJSONMessage(t, w, services.MsgUserDeleted)
	assert.Equal(t, 2, app.users.Count())

	assertStatusCode(t, app.api(http.MethodGet, path, nil, token), http.StatusNotFound)
	assertStatusCode(t, app.api(http.MethodGet, "/api/users/abc", nil, token), http.StatusNotFound)
}

func TestAPIUsers_CreateValidation(t *testing.T) {
	app := newTestApp(t)

	w := app.api(http.MethodPost, "/api/users", map[string]interface{}{
		"name":                  "Jane Doe",
		"email":                 "ADMIN@example.com",
		"password":              testPassword,
		"password_confirmation": testPassword,
		"is_admin":              "perhaps",
	}, app.bearer(t, app.admin))
	assertStatusCode(t, w, http.StatusUnprocessableEntity)

	fields, ok := decodeJSON(t, w)["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "is_admin")
	assert.Equal(t, 2, app.users.Count())
}

func TestAPIUsers_CannotDeleteSelf(t *testing.T) {
	app := newTestApp(t)

	w := app.api(http.MethodDelete, fmt.Sprintf("/api/users/%d", app.admin.ID), nil, app.bearer(t, app.admin))
	assertStatusCode(t, w, http.StatusUnprocessableEntity)
	assertJSONMessage(t, w, services.MsgCannotDelete)
	assert.Equal(t, 2, app.users.Count())
}

func TestAPIUsers_MalformedBody(t *testing.T) {
	app := newTestApp(t)

	req := newJSONRequest(http.MethodPost, "/api/users", "not an object")
	req.Header.Set("Authorization", "Bearer "+app.bearer(t, app.admin))
	w := app.serve(req)
	assertStatusCode(t, w, http.StatusBadRequest)
	assertJSONMessage(t, w, services.MsgInvalidRequest)
}

func TestAPIUsers_UpdateUnknownUserBeforeBinding(t *testing.T) {
	app := newTestApp(t)
	token := app.bearer(t, app.admin)

	req := newJSONRequest(http.MethodPut, "/api/users/999", "not an object")
	req.Header.Set("Authorization", "Bearer "+token)
	w := app.serve(req)
	assertStatusCode(t, w, http.StatusNotFound)
	assertJSONMessage(t, w, services.MsgNotFound)

	req = newJSONRequest(http.MethodPut, fmt.Sprintf("/api/users/%d", app.member.ID), "not an object")
	req.Header.Set("Authorization", "Bearer "+token)
	w = app.serve(req)
	assertStatusCode(t, w, http.StatusBadRequest)
	assertJSONMessage(t, w, services.MsgInvalidRequest)
	assert.Zero(t, app.users.CallCount("Update"))
}
