package echovalidator_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/presbrey/relayd/echovalidator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noticeRequest struct {
	Text   string `json:"text" validate:"required,max=16"`
	Secret string `json:"-" validate:"omitempty"`
}

func TestValidateValid(t *testing.T) {
	cv := echovalidator.New()
	assert.NoError(t, cv.Validate(noticeRequest{Text: "hello"}))
}

func TestValidateUsesJSONNames(t *testing.T) {
	cv := echovalidator.New()

	err := cv.Validate(noticeRequest{})
	require.Error(t, err)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok, "Error should be an echo.HTTPError")
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Equal(t, "text: required", httpErr.Message)

	err = cv.Validate(noticeRequest{Text: strings.Repeat("x", 17)})
	require.Error(t, err)
	assert.Equal(t, "text: max", err.(*echo.HTTPError).Message)
}

func TestSetupBindsRequests(t *testing.T) {
	e := echo.New()
	echovalidator.Setup(e)
	assert.IsType(t, &echovalidator.CustomValidator{}, e.Validator)

	e.POST("/notice", func(c echo.Context) error {
		var req noticeRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		if err := c.Validate(&req); err != nil {
			return err
		}
		return c.String(http.StatusOK, req.Text)
	})

	for body, want := range map[string]int{
		`{"text": "hi"}`: http.StatusOK,
		`{"text": ""}`:   http.StatusBadRequest,
		`{}`:             http.StatusBadRequest,
	} {
		req := httptest.NewRequest(http.MethodPost, "/notice", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, body)
	}
}

func TestSetupNilEcho(t *testing.T) {
	assert.PanicsWithValue(t, "echovalidator.Setup: received nil Echo instance", func() {
		echovalidator.Setup(nil)
	})
}
