package handlerUtil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"DermaScan/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func run(t *testing.T, handlerErr error) (int, ErrorResponse) {
	t.Helper()

	app := fiber.New()
	h := New(quietLogger())
	app.Get("/", func(c *fiber.Ctx) error {
		return h.Handle(c, "req-1", handlerErr, c.Path(), "test")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, body
}

func TestHandleResponseError(t *testing.T) {
	base := response.NewError(400, "FETCH_FAILED", "Failed to fetch image from URL")
	status, body := run(t, fmt.Errorf("%w: %v", base, errors.New("dial tcp: refused")))

	if status != 400 {
		t.Errorf("status = %d, want 400", status)
	}
	if body.Code != "FETCH_FAILED" || body.Error != "Failed to fetch image from URL: dial tcp: refused" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestHandleFiberError(t *testing.T) {
	status, body := run(t, fiber.NewError(fiber.StatusRequestEntityTooLarge, "Request Entity Too Large"))
	if status != fiber.StatusRequestEntityTooLarge || body.Error != "Request Entity Too Large" {
		t.Errorf("unexpected %d %+v", status, body)
	}
}

func TestHandleUnexpected(t *testing.T) {
	status, body := run(t, errors.New("disk on fire"))
	if status != 500 || body.Code != UnexpectedErrorCode || body.Error != "Unexpected server error: disk on fire" {
		t.Errorf("unexpected %d %+v", status, body)
	}
	if body.TraceID != "req-1" {
		t.Errorf("trace id = %q, want the request id", body.TraceID)
	}
}

func TestCode(t *testing.T) {
	err := fmt.Errorf("%w: detail", response.NewError(500, "INFERENCE_FAILED", "x"))
	if got := Code(err); got != "INFERENCE_FAILED" {
		t.Errorf("Code = %q", got)
	}
	if got := Code(errors.New("plain")); got != UnexpectedErrorCode {
		t.Errorf("Code = %q", got)
	}
}
