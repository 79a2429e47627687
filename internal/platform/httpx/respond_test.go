package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProblemDerivesTypeFromTitle(t *testing.T) {
	res := httptest.NewRecorder()
	Problem(res, http.StatusBadRequest, "Validation Failed", "scheduled_at is malformed")

	require.Equal(t, http.StatusBadRequest, res.Code)
	var pd ProblemDetail
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &pd))
	require.Equal(t, problemTypeBase+"validation-failed", pd.Type)
	require.Equal(t, "Validation Failed", pd.Title)
	require.Equal(t, "scheduled_at is malformed", pd.Detail)
}

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrDuplicate, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("pool exhausted"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		res := httptest.NewRecorder()
		RespondError(res, fmt.Errorf("wrapped: %w", tc.err))
		require.Equal(t, tc.status, res.Code, tc.err.Error())
	}
}

func TestDecodeJSONBoundsBody(t *testing.T) {
	oversized := `{"v":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(oversized))

	var target struct {
		V string `json:"v"`
	}
	require.Error(t, DecodeJSON(req, &target))
}
