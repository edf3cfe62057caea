package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Error(msg string, _ map[string]interface{}) {
	l.messages = append(l.messages, msg)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"app not found", NewAppNotFoundError("chess"), http.StatusNotFound},
		{"no reviews", NewNoReviewsError("com.chess"), http.StatusNotFound},
		{"search failed", NewSearchFailedError("chess", stderrors.New("boom")), http.StatusInternalServerError},
		{"fetch failed", NewFetchFailedError("com.chess", stderrors.New("boom")), http.StatusInternalServerError},
		{"infrastructure", NewInfrastructureError("governor", stderrors.New("closed")), http.StatusInternalServerError},
		{"invalid request", NewInvalidRequestError("appName is required"), http.StatusBadRequest},
		{"plain error", stderrors.New("unexpected"), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("resolve: %w", NewAppNotFoundError("x")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestAs_NormalizesPlainErrors(t *testing.T) {
	assert.Nil(t, As(nil))

	stdErr := As(stderrors.New("kaboom"))
	require.NotNil(t, stdErr)
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "kaboom", stdErr.Details)
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewFetchFailedError("com.chess", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, HasCode(err, ErrCodeFetchFailed))
	assert.False(t, IsNotFound(err))
}

func TestConvertToBPMNError(t *testing.T) {
	upstream := ConvertToBPMNError(NewSearchFailedError("chess", stderrors.New("503")))
	assert.Equal(t, "CATALOG_SEARCH_FAILED", upstream.Code)
	assert.Equal(t, 3, upstream.Retries)
	assert.True(t, upstream.Retryable)

	notFound := ConvertToBPMNError(NewAppNotFoundError("chess"))
	assert.Equal(t, "APP_NOT_FOUND", notFound.Code)
	assert.Equal(t, 0, notFound.Retries)

	vars := notFound.ToErrorVariables()
	assert.Equal(t, "APP_NOT_FOUND", vars["originalErrorCode"])
	assert.Equal(t, false, vars["retryable"])
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", GetErrorCategory(ErrCodeAppNotFound))
	assert.Equal(t, "NOT_FOUND", GetErrorCategory(ErrCodeNoReviews))
	assert.Equal(t, "UPSTREAM", GetErrorCategory(ErrCodeSearchFailed))
	assert.Equal(t, "UPSTREAM", GetErrorCategory(ErrCodeFetchFailed))
	assert.Equal(t, "CLASSIFICATION", GetErrorCategory(ErrCodeClassificationFailed))
	assert.Equal(t, "INFRASTRUCTURE", GetErrorCategory(ErrCodeInfrastructureFailure))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidRequest))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestMiddleware_WritesDetailBody(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody Response
		logged       bool
	}{
		{
			name:         "not found keeps message",
			err:          NewNoReviewsError("com.chess"),
			expectedCode: http.StatusNotFound,
			expectedBody: Response{Detail: "No reviews found for this app", Code: ErrCodeNoReviews},
		},
		{
			name:         "internal hides details",
			err:          stderrors.New("secret stack"),
			expectedCode: http.StatusInternalServerError,
			expectedBody: Response{Detail: "An error occurred while processing the request", Code: ErrCodeInternal},
			logged:       true,
		},
		{
			name:         "upstream",
			err:          NewSearchFailedError("chess", stderrors.New("timeout")),
			expectedCode: http.StatusInternalServerError,
			expectedBody: Response{Detail: "Error searching apps", Code: ErrCodeSearchFailed},
			logged:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := Middleware(log)(func(echo.Context) error { return tt.err })
			require.NoError(t, handler(c))

			assert.Equal(t, tt.expectedCode, rec.Code)
			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedBody, body)
			assert.Equal(t, tt.logged, len(log.messages) > 0)
		})
	}
}

func TestMiddleware_PassesEchoErrorsThrough(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	handler := Middleware(&recordingLogger{})(func(echo.Context) error {
		return echo.ErrMethodNotAllowed
	})

	err := handler(c)
	assert.Equal(t, echo.ErrMethodNotAllowed, err)
}
