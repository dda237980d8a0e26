package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investcli/internal/dataprocessing"
	apperrors "investcli/internal/errors"
)

func TestQueryValidator_ParseFilter(t *testing.T) {
	v := NewQueryValidator(quietLogger())

	tests := []struct {
		name      string
		query     string
		want      FilterQuery
		wantField string
	}{
		{name: "empty", query: "", want: FilterQuery{}},
		{
			name:  "repeated and comma separated",
			query: "market=Software&market=Games,%20Health&country=USA&status=acquired",
			want: FilterQuery{
				Markets:   []string{"Software", "Games", "Health"},
				Countries: []string{"USA"},
				Statuses:  []string{"acquired"},
			},
		},
		{
			name:  "numeric bounds",
			query: "year_from=2000&year_to=2010&min_funding=1e6&limit=20",
			want:  FilterQuery{YearFrom: 2000, YearTo: 2010, MinFunding: 1e6, Limit: 20},
		},
		{name: "open upper bound", query: "year_from=2005", want: FilterQuery{YearFrom: 2005}},
		{name: "not an integer", query: "year_from=abc", wantField: "year_from"},
		{name: "not a number", query: "min_funding=lots", wantField: "min_funding"},
		{name: "negative funding", query: "min_funding=-1", wantField: "min_funding"},
		{name: "year out of range", query: "year_to=3000", wantField: "year_to"},
		{name: "inverted years", query: "year_from=2010&year_to=2000", wantField: "year_to"},
		{name: "limit too large", query: "limit=501", wantField: "limit"},
		{name: "negative limit", query: "limit=-2", wantField: "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/data/overview?"+tt.query, nil)
			got, err := v.ParseFilter(req)

			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			require.Error(t, err)
			var apiErr *apperrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			details, ok := apiErr.Details.(apperrors.ValidationErrors)
			require.True(t, ok)
			require.NotEmpty(t, details.Errors)
			assert.Equal(t, tt.wantField, details.Errors[0].Field)
		})
	}
}

func TestFilterQuery_Filter(t *testing.T) {
	q := FilterQuery{Markets: []string{"Games"}, YearFrom: 2001, MinFunding: 5, Limit: 3}
	assert.Equal(t, dataprocessing.Filter{Markets: []string{"Games"}, YearFrom: 2001, MinFunding: 5}, q.Filter())
}

func TestQueryValidator_ValidateEnum(t *testing.T) {
	v := NewQueryValidator(quietLogger())
	allowed := []string{"sum", "mean"}

	got, err := v.ValidateEnum(httptest.NewRequest(http.MethodGet, "/?metric=MEAN", nil), "metric", allowed, "sum")
	require.NoError(t, err)
	assert.Equal(t, "mean", got)

	got, err = v.ValidateEnum(httptest.NewRequest(http.MethodGet, "/", nil), "metric", allowed, "sum")
	require.NoError(t, err)
	assert.Equal(t, "sum", got)

	_, err = v.ValidateEnum(httptest.NewRequest(http.MethodGet, "/?metric=median", nil), "metric", allowed, "sum")
	var apiErr *apperrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apperrors.CodeValidationFailed, apiErr.ErrorCode)
}
