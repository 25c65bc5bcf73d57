package handler

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprint-tracker/internal/domain"
)

func TestDecodeBody(t *testing.T) {
	var dst assignRequest

	r := httptest.NewRequest("PUT", "/tasks/t1/sprint", strings.NewReader(`{"sprint_id":"s1"}`))
	require.NoError(t, decodeBody(httptest.NewRecorder(), r, &dst))
	assert.Equal(t, "s1", dst.SprintID)

	r = httptest.NewRequest("PUT", "/tasks/t1/sprint", strings.NewReader(""))
	assert.ErrorIs(t, decodeBody(httptest.NewRecorder(), r, &dst), errEmptyBody)

	r = httptest.NewRequest("PUT", "/tasks/t1/sprint", strings.NewReader("{"))
	assert.Error(t, decodeBody(httptest.NewRecorder(), r, &dst))
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("start_date", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", d.Format("2006-01-02"))

	_, err = parseDate("start_date", "03/01/2026")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "start_date")
}

func TestParsePolicy(t *testing.T) {
	policy, err := parsePolicy(httptest.NewRequest("DELETE", "/sprints/s1?policy=UNASSIGN", nil))
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyUnassign, policy)

	policy, err = parsePolicy(httptest.NewRequest("DELETE", "/sprints/s1", nil))
	require.NoError(t, err)
	assert.Empty(t, policy)

	_, err = parsePolicy(httptest.NewRequest("DELETE", "/sprints/s1?policy=DROP", nil))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseLimit(t *testing.T) {
	for raw, want := range map[string]int{"": 0, "0": 0, "25": 25} {
		limit, err := parseLimit(httptest.NewRequest("GET", "/projects/p/commits/approved?limit="+raw, nil))
		require.NoError(t, err)
		assert.Equal(t, want, limit)
	}

	for _, raw := range []string{"-1", "ten"} {
		_, err := parseLimit(httptest.NewRequest("GET", "/projects/p/commits/approved?limit="+raw, nil))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}
