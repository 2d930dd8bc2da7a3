package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citybites/site/internal/middleware"
)

type memStore struct {
	admins map[string]*Admin
	err    error
}

func (m *memStore) Create(_ context.Context, email, _ string) (*Admin, error) {
	for _, a := range m.admins {
		if a.Email == email {
			return nil, ErrAlreadyExists
		}
	}
	a := &Admin{ID: "id-" + email, Email: email, CreatedAt: time.Now()}
	m.admins[a.ID] = a
	return a, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*Admin, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *memStore) Exists(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.admins[id]
	return ok, nil
}

func TestServiceCreateNormalizesEmail(t *testing.T) {
	svc := NewService(&memStore{admins: map[string]*Admin{}})

	a, err := svc.Create(context.Background(), "  Chef@Example.com ", "hash")
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", a.Email)

	_, err = svc.Create(context.Background(), "chef@example.com", "hash")
	require.ErrorIs(t, err, ErrAlreadyExists)

	_, err = svc.Create(context.Background(), "not-an-email", "hash")
	require.Error(t, err)
}

func TestServiceIsAdmin(t *testing.T) {
	store := &memStore{admins: map[string]*Admin{"a1": {ID: "a1"}}}
	svc := NewService(store)

	ok, err := svc.IsAdmin(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAdmin(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	store.err = errors.New("db down")
	_, err = svc.IsAdmin(context.Background(), "a1")
	require.Error(t, err)
}

func TestGetMe(t *testing.T) {
	svc := NewService(&memStore{admins: map[string]*Admin{"a1": {ID: "a1", Email: "a@b.c"}}})
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ctx := context.WithValue(req.Context(), middleware.AdminIDKey, "a1")
	rec = httptest.NewRecorder()
	h.GetMe(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"a@b.c"`)

	ctx = context.WithValue(req.Context(), middleware.AdminIDKey, "gone")
	rec = httptest.NewRecorder()
	h.GetMe(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
