package cron

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/torsdagskos/backend/internal/scheduler"
)

type fakeScheduler struct {
	result scheduler.TickResult
	calls  int
}

func (f *fakeScheduler) RunTick(context.Context) (scheduler.TickResult, error) {
	f.calls++
	return f.result, nil
}

func request(secret string, useBearer bool) (*gin.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/cron/event-reminders", nil)
	if secret != "" {
		if useBearer {
			req.Header.Set("Authorization", "Bearer "+secret)
		} else {
			req.Header.Set("X-Cron-Secret", secret)
		}
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func TestHandler_Tick_BearerAuth(t *testing.T) {
	s := &fakeScheduler{result: scheduler.TickResult{Skipped: true, Reason: "outside 18:00 Europe/Oslo execution window"}}
	h := NewHandler(s, "s3cret")

	c, w := request("s3cret", true)
	h.Tick(c)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	assert.Equal(t, 1, s.calls)
}

func TestHandler_Tick_HeaderAuth(t *testing.T) {
	s := &fakeScheduler{}
	h := NewHandler(s, "s3cret")

	c, w := request("s3cret", false)
	h.Tick(c)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	assert.Equal(t, 1, s.calls)
}

func TestHandler_Tick_WrongSecret(t *testing.T) {
	s := &fakeScheduler{}
	h := NewHandler(s, "s3cret")

	c, w := request("wrong", true)
	h.Tick(c)

	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
	assert.Zero(t, s.calls)
}

func TestHandler_Tick_SecretUnset(t *testing.T) {
	s := &fakeScheduler{}
	h := NewHandler(s, "")

	c, w := request("", true)
	h.Tick(c)

	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
	assert.Zero(t, s.calls)
}
