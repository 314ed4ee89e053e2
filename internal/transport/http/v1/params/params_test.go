package params

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
)

func TestCaller(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := Caller(r)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	want := identity.Caller{ID: uuid.New(), Role: identity.RoleCustomer}
	got, err := Caller(r.WithContext(identity.WithCaller(r.Context(), want)))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	rctx.URLParams.Add("bad", "123")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	got, err := PathUUID(r, "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = PathUUID(r, "bad")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestQueryParsers(t *testing.T) {
	id := uuid.New()
	r := httptest.NewRequest(http.MethodGet,
		"/?vendor_id="+id.String()+"&customer_id=nope&page=3&page_size=x&date_from=2026-03-01&date_to=yesterday", nil)

	assert.Equal(t, &id, QueryUUID(r, "vendor_id"))
	assert.Nil(t, QueryUUID(r, "customer_id"))
	assert.Equal(t, 3, QueryInt(r, "page"))
	assert.Equal(t, 0, QueryInt(r, "page_size"))

	from := QueryTime(r, "date_from")
	require.NotNil(t, from)
	assert.True(t, from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, QueryTime(r, "date_to"))
	assert.Nil(t, QueryTime(r, "missing"))
}

func TestQueryTimeEnd(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/?date_to=2026-04-01&stamp=2026-04-01T10:30:00Z&bad=tomorrow", nil)

	end := QueryTimeEnd(r, "date_to")
	require.NotNil(t, end)
	assert.True(t, end.Equal(time.Date(2026, 4, 1, 23, 59, 59, 999999000, time.UTC)))

	stamp := QueryTimeEnd(r, "stamp")
	require.NotNil(t, stamp)
	assert.True(t, stamp.Equal(time.Date(2026, 4, 1, 10, 30, 0, 0, time.UTC)))

	assert.Nil(t, QueryTimeEnd(r, "bad"))
}
