package params

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
)

// Caller returns the authenticated caller of r.
func Caller(r *http.Request) (identity.Caller, error) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		return identity.Caller{}, apperr.Unauthorized("Authentication required")
	}

	return caller, nil
}

// PathUUID parses the named route parameter as a uuid.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.BadRequest("VALIDATION_ERROR", "invalid %s", name)
	}

	return id, nil
}

// QueryUUID parses an optional uuid query parameter. Malformed values are ignored.
func QueryUUID(r *http.Request, name string) *uuid.UUID {
	id, err := uuid.Parse(r.URL.Query().Get(name))
	if err != nil {
		return nil
	}

	return &id
}

// QueryInt parses an optional integer query parameter, returning 0 when absent or malformed.
func QueryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}

	return n
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", time.DateOnly}

// QueryTime parses an optional timestamp or date query parameter. Malformed values are ignored.
func QueryTime(r *http.Request, name string) *time.Time {
	t, _ := queryTime(r, name)

	return t
}

// QueryTimeEnd is QueryTime for inclusive upper bounds: a bare date covers
// the whole day.
func QueryTimeEnd(r *http.Request, name string) *time.Time {
	t, dateOnly := queryTime(r, name)
	if t != nil && dateOnly {
		end := t.AddDate(0, 0, 1).Add(-time.Microsecond)

		return &end
	}

	return t
}

func queryTime(r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, layout == time.DateOnly
		}
	}

	return nil, false
}
