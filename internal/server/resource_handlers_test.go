package server

import (
	"net/http"
	"testing"

	"qipu/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idBody struct {
	ID uint `json:"id"`
}

func TestPostOwnership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	tag := env.createTag(t, alice.Token, "notes")

	resp := env.do(t, request{method: http.MethodPost, path: "/posts", token: alice.Token, body: map[string]any{
		"content": "hello",
		"tagIds":  []uint{tag},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := decode[postBody](t, resp)
	assert.Equal(t, alice.ID, post.User)
	assert.Equal(t, []uint{tag}, post.TagIDs)
	postPath := urlf("/posts/%d", post.ID)

	tests := []struct {
		name   string
		method string
		token  string
		body   any
		want   int
	}{
		{"Other User Reads", http.MethodGet, bob.Token, nil, http.StatusOK},
		{"Other User Puts", http.MethodPut, bob.Token, map[string]any{"content": "mine now"}, http.StatusForbidden},
		{"Other User Patches", http.MethodPatch, bob.Token, map[string]any{"content": "mine now"}, http.StatusForbidden},
		{"Other User Deletes", http.MethodDelete, bob.Token, nil, http.StatusForbidden},
		{"Owner Put Missing Content", http.MethodPut, alice.Token, map[string]any{}, http.StatusBadRequest},
		{"Owner Patches", http.MethodPatch, alice.Token, map[string]any{"content": "edited"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, request{method: tt.method, path: postPath, token: tt.token, body: tt.body})
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	resp = env.do(t, request{method: http.MethodGet, path: postPath, token: alice.Token})
	got := decode[postBody](t, resp)
	assert.Equal(t, "edited", got.Content)
	assert.Equal(t, []uint{tag}, got.TagIDs)

	resp = env.do(t, request{method: http.MethodDelete, path: postPath, token: alice.Token})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, request{method: http.MethodGet, path: postPath, token: alice.Token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")

	resp := env.do(t, request{method: http.MethodPost, path: "/users", token: alice.Token, body: map[string]any{"username": "carol"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	var users int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(2), users)

	resp = env.do(t, request{method: http.MethodPatch, path: urlf("/users/%d", bob.ID), token: alice.Token, body: map[string]any{"bio": "hacked"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, request{method: http.MethodPatch, path: urlf("/users/%d", alice.ID), token: alice.Token, body: map[string]any{"bio": "Hello there"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello there", decode[map[string]any](t, resp)["bio"])

	resp = env.do(t, request{method: http.MethodGet, path: "/users", token: bob.Token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]idBody](t, resp), 2)
}

func TestEvents(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice")

	event := map[string]any{
		"title":       "Picnic",
		"description": "bring food",
		"location":    "park",
		"start_time":  "2024-06-01T12:00:00Z",
		"end_time":    "2024-06-01T15:00:00Z",
	}
	resp := env.do(t, request{method: http.MethodPost, path: "/events", token: alice.Token, body: event})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decode[idBody](t, resp)

	event["end_time"] = "2024-06-01T11:00:00Z"
	resp = env.do(t, request{method: http.MethodPost, path: "/events", token: alice.Token, body: event})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	event["end_time"] = "2024-06-08T15:00:00Z"
	event["start_time"] = "2024-06-08T12:00:00Z"
	event["recurrence_id"] = 9999
	resp = env.do(t, request{method: http.MethodPost, path: "/events", token: alice.Token, body: event})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	event["recurrence_id"] = first.ID
	resp = env.do(t, request{method: http.MethodPost, path: "/events", token: alice.Token, body: event})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decode[map[string]any](t, resp)
	assert.EqualValues(t, first.ID, second["recurrence_id"])

	resp = env.do(t, request{method: http.MethodPatch, path: urlf("/events/%d", first.ID), token: alice.Token, body: map[string]any{"recurrence_id": first.ID}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestContactVisibility(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	carol := env.signup(t, "carol")

	resp := env.do(t, request{method: http.MethodPost, path: "/relationship_labels", token: alice.Token, body: map[string]string{"name": "family"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	label := decode[idBody](t, resp)

	resp = env.do(t, request{method: http.MethodPost, path: "/contacts", token: alice.Token, body: map[string]any{
		"recipient": bob.ID,
		"labels":    []uint{label.ID},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	contact := decode[map[string]any](t, resp)
	assert.Equal(t, "pending", contact["status"])
	contactPath := urlf("/contacts/%v", contact["id"])

	resp = env.do(t, request{method: http.MethodGet, path: contactPath, token: carol.Token})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(t, request{method: http.MethodPatch, path: contactPath, token: carol.Token, body: map[string]any{"status": "accepted"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, request{method: http.MethodGet, path: contactPath, token: bob.Token})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, request{method: http.MethodPut, path: contactPath, token: bob.Token, body: map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, request{method: http.MethodPatch, path: contactPath, token: bob.Token, body: map[string]any{"status": "accepted"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[map[string]any](t, resp)
	assert.Equal(t, "accepted", updated["status"])
	assert.NotNil(t, updated["response_received_at"])

	for _, tt := range []struct {
		token string
		want  int
	}{{alice.Token, 1}, {bob.Token, 1}, {carol.Token, 0}} {
		resp = env.do(t, request{method: http.MethodGet, path: "/contacts", token: tt.token})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]idBody](t, resp), tt.want)
	}

	resp = env.do(t, request{method: http.MethodGet, path: "/contacts?status=accepted", token: alice.Token})
	assert.Len(t, decode[[]idBody](t, resp), 1)
	resp = env.do(t, request{method: http.MethodGet, path: "/contacts?status=bogus", token: alice.Token})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, request{method: http.MethodDelete, path: contactPath, token: carol.Token})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(t, request{method: http.MethodDelete, path: contactPath, token: bob.Token})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAttendees(t *testing.T) {
	env := newTestEnv(t)
	host := env.signup(t, "host")
	guest := env.signup(t, "guest")
	stranger := env.signup(t, "stranger")

	resp := env.do(t, request{method: http.MethodPost, path: "/events", token: host.Token, body: map[string]any{
		"title":       "Dinner",
		"description": "at eight",
		"location":    "home",
		"start_time":  "2024-06-01T20:00:00Z",
		"end_time":    "2024-06-01T23:00:00Z",
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	event := decode[idBody](t, resp)

	resp = env.do(t, request{method: http.MethodPost, path: "/attendees", token: stranger.Token, body: map[string]any{"event": event.ID, "user": guest.ID}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, request{method: http.MethodPost, path: "/attendees", token: host.Token, body: map[string]any{"event": event.ID, "user": guest.ID}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	attendeePath := urlf("/attendees/%d", decode[idBody](t, resp).ID)

	resp = env.do(t, request{method: http.MethodGet, path: attendeePath, token: stranger.Token})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(t, request{method: http.MethodGet, path: attendeePath, token: host.Token})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Only the attendee answers.
	resp = env.do(t, request{method: http.MethodPatch, path: attendeePath, token: host.Token, body: map[string]any{"status": "accepted"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(t, request{method: http.MethodPatch, path: attendeePath, token: guest.Token, body: map[string]any{"user": stranger.ID}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, request{method: http.MethodPatch, path: attendeePath, token: guest.Token, body: map[string]any{"status": "accepted"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "accepted", decode[map[string]any](t, resp)["status"])

	resp = env.do(t, request{method: http.MethodGet, path: urlf("/attendees?event=%d", event.ID), token: host.Token})
	assert.Len(t, decode[[]idBody](t, resp), 1)
	resp = env.do(t, request{method: http.MethodGet, path: "/attendees", token: stranger.Token})
	assert.Empty(t, decode[[]idBody](t, resp))

	// Joining needs no invitation.
	resp = env.do(t, request{method: http.MethodPost, path: "/attendees", token: stranger.Token, body: map[string]any{"event": event.ID}})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestUniques(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice")

	resp := env.do(t, request{method: http.MethodPost, path: "/uniques", token: alice.Token})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	uniquePath := urlf("/uniques/%d", decode[idBody](t, resp).ID)

	resp = env.do(t, request{method: http.MethodGet, path: uniquePath, token: alice.Token})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	for _, method := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
		resp = env.do(t, request{method: method, path: uniquePath, token: alice.Token, body: map[string]any{}})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, method)
		assert.Equal(t, models.CodeForbidden, decode[models.ErrorResponse](t, resp).Code, method)
	}

	resp = env.do(t, request{method: http.MethodGet, path: uniquePath, token: alice.Token})
	assert.Equal(t, http.StatusOK, resp.StatusCode, "refused delete must keep the row")

	resp = env.do(t, request{method: http.MethodDelete, path: "/uniques/9999", token: alice.Token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserTags(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	tag := env.createTag(t, alice.Token, "favorite")

	resp := env.do(t, request{method: http.MethodPost, path: "/posts", token: bob.Token, body: map[string]any{"content": "bob's post"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := decode[idBody](t, resp)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"Missing Fields", map[string]any{"tag": tag}, http.StatusBadRequest},
		{"Unknown Kind", map[string]any{"tag": tag, "subject_kind": "comment", "subject_id": post.ID}, http.StatusBadRequest},
		{"Missing Subject", map[string]any{"tag": tag, "subject_kind": "post", "subject_id": 9999}, http.StatusBadRequest},
		{"Missing Tag", map[string]any{"tag": 9999, "subject_kind": "post", "subject_id": post.ID}, http.StatusBadRequest},
		{"Post", map[string]any{"tag": tag, "subject_kind": "post", "subject_id": post.ID}, http.StatusCreated},
		{"User", map[string]any{"tag": tag, "subject_kind": "user", "subject_id": bob.ID}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, request{method: http.MethodPost, path: "/user_tags", token: alice.Token, body: tt.body})
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	resp = env.do(t, request{method: http.MethodGet, path: "/user_tags?kind=post", token: alice.Token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tags := decode[[]struct {
		ID          uint   `json:"id"`
		SubjectKind string `json:"subject_kind"`
		SubjectID   uint   `json:"subject_id"`
	}](t, resp)
	require.Len(t, tags, 1)
	assert.Equal(t, "post", tags[0].SubjectKind)
	assert.Equal(t, post.ID, tags[0].SubjectID)

	resp = env.do(t, request{method: http.MethodGet, path: "/user_tags", token: bob.Token})
	assert.Empty(t, decode[[]idBody](t, resp))

	tagPath := urlf("/user_tags/%d", tags[0].ID)
	resp = env.do(t, request{method: http.MethodDelete, path: tagPath, token: bob.Token})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(t, request{method: http.MethodDelete, path: tagPath, token: alice.Token})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Deleting the subject removes tags pointing at it.
	resp = env.do(t, request{method: http.MethodDelete, path: urlf("/users/%d", bob.ID), token: bob.Token})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, request{method: http.MethodGet, path: "/user_tags", token: alice.Token})
	assert.Empty(t, decode[[]idBody](t, resp))
}

func TestTrailingSlash(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice")
	tag := env.createTag(t, alice.Token, "slash")

	for _, p := range []string{"/tags", "/tags/", urlf("/tags/%d", tag), urlf("/tags/%d/", tag)} {
		resp := env.do(t, request{method: http.MethodGet, path: p, token: alice.Token})
		assert.Equal(t, http.StatusOK, resp.StatusCode, p)
	}
}

func TestInvalidRequests(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice")

	resp := env.do(t, request{method: http.MethodGet, path: "/posts/abc", token: alice.Token})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, request{method: http.MethodGet, path: "/media/42", token: alice.Token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, request{method: http.MethodPost, path: "/media", token: alice.Token, body: map[string]any{"caption": "no type"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
