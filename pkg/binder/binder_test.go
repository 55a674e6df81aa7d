package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/moneylens/pkg/binder"
)

type checkoutRequest struct {
	UserID string  `path:"userID" json:"-"`
	PlanID string  `json:"plan_id"`
	Lang   string  `query:"lang" json:"-"`
	Trials *int    `query:"trials" json:"-"`
	Ratio  float64 `query:"ratio" json:"-"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	bind := binder.JSON()

	t.Run("decodes body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"plan_id":"monthly"}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var req checkoutRequest
		require.NoError(t, bind(r, &req))
		assert.Equal(t, "monthly", req.PlanID)
	})

	t.Run("not applicable to GET", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		var req checkoutRequest
		assert.ErrorIs(t, bind(r, &req), binder.ErrBinderNotApplicable)
	})

	tests := []struct {
		name        string
		contentType string
		body        string
		want        error
	}{
		{"missing content type", "", `{}`, binder.ErrMissingContentType},
		{"wrong media type", "text/plain", `{}`, binder.ErrUnsupportedMediaType},
		{"empty body", "application/json", ``, binder.ErrFailedToParseJSON},
		{"unknown field", "application/json", `{"plan":"monthly"}`, binder.ErrFailedToParseJSON},
		{"trailing data", "application/json", `{"plan_id":"a"}{"plan_id":"b"}`, binder.ErrFailedToParseJSON},
		{"malformed", "application/json", `{"plan_id":`, binder.ErrFailedToParseJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			var req checkoutRequest
			assert.ErrorIs(t, bind(r, &req), tt.want)
		})
	}

	t.Run("body too large", func(t *testing.T) {
		t.Parallel()
		big := `{"plan_id":"` + strings.Repeat("x", binder.DefaultMaxJSONSize) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		r.Header.Set("Content-Type", "application/json")
		var req checkoutRequest
		assert.ErrorIs(t, bind(r, &req), binder.ErrFailedToParseJSON)
	})
}

func TestPath(t *testing.T) {
	t.Parallel()

	params := map[string]string{"userID": "42"}
	extract := func(_ *http.Request, key string) string { return params[key] }

	var req checkoutRequest
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, binder.Path(extract)(r, &req))
	assert.Equal(t, "42", req.UserID)
	assert.Empty(t, req.PlanID)

	assert.ErrorIs(t, binder.Path(nil)(r, &req), binder.ErrFailedToParsePath)
	assert.ErrorIs(t, binder.Path(extract)(r, req), binder.ErrFailedToParsePath)
}

func TestQuery(t *testing.T) {
	t.Parallel()

	t.Run("binds tagged fields", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/?lang=en-GB&trials=500&ratio=0.25", nil)
		var req checkoutRequest
		require.NoError(t, binder.Query()(r, &req))
		assert.Equal(t, "en-GB", req.Lang)
		require.NotNil(t, req.Trials)
		assert.Equal(t, 500, *req.Trials)
		assert.InDelta(t, 0.25, req.Ratio, 1e-12)
	})

	t.Run("invalid number", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/?trials=many", nil)
		var req checkoutRequest
		assert.ErrorIs(t, binder.Query()(r, &req), binder.ErrFailedToParseQuery)
	})
}
