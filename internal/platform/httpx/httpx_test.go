package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("%w: journal 9", ErrNotFound):    http.StatusNotFound,
		fmt.Errorf("%w: closed", ErrConflict):       http.StatusConflict,
		fmt.Errorf("%w: bad json", ErrValidation):   http.StatusBadRequest,
		fmt.Errorf("%w: delta", ErrUnprocessable):   http.StatusUnprocessableEntity,
		errors.New("pool exhausted"):                http.StatusInternalServerError,
	}
	for err, status := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, err)
		require.Equal(t, status, rr.Code, err.Error())

		var p ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
		require.Equal(t, status, p.Status)
		if status == http.StatusInternalServerError {
			require.Empty(t, p.Detail)
		}
	}
}
