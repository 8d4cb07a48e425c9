package event

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torsdagskos/backend/internal/api/dto"
	"github.com/torsdagskos/backend/internal/civiltime"
	mocks "github.com/torsdagskos/backend/internal/mocks/api/handlers/event"
	"github.com/torsdagskos/backend/internal/model"
	eventrepo "github.com/torsdagskos/backend/internal/repository/event"
	"github.com/torsdagskos/backend/internal/service/event"
)

func setupHandler(t *testing.T) (*Handler, *mocks.MockeventService) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockeventService(ctrl)

	civil, err := civiltime.New("Europe/Oslo")
	require.NoError(t, err)

	handler := NewHandler(mockService, validator.New(), civil)
	return handler, mockService
}

func postJSON(t *testing.T, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	bodyBytes, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func TestHandler_Create_Success(t *testing.T) {
	handler, mockService := setupHandler(t)

	reqBody := dto.CreateEventRequest{
		Title:    "Thursday gathering",
		Date:     "2026-03-05",
		Time:     "18:00",
		Location: "The usual place",
	}

	c, w := postJSON(t, reqBody)

	mockService.EXPECT().
		CreateEvent(gomock.Any(), gomock.AssignableToTypeOf(event.CreateEventInput{})).
		DoAndReturn(func(_ interface{}, in event.CreateEventInput) (int64, model.NotificationSummary, error) {
			// 18:00 in Oslo in March is 17:00 UTC.
			assert.Equal(t, "2026-03-05T17:00:00Z", in.DateTime.UTC().Format("2006-01-02T15:04:05Z07:00"))
			return 42, model.NotificationSummary{TotalUsers: 3, Sent: 3}, nil
		})

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, w.Result().StatusCode)

	var resp struct {
		Data CreateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.Data.EventID)
	assert.Equal(t, 3, resp.Data.Notifications.Sent)
}

func TestHandler_Create_ValidationError(t *testing.T) {
	handler, _ := setupHandler(t)

	// Missing title and location.
	c, w := postJSON(t, dto.CreateEventRequest{Date: "2026-03-05", Time: "18:00"})

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestHandler_Create_BadCivilTime(t *testing.T) {
	handler, _ := setupHandler(t)

	c, w := postJSON(t, dto.CreateEventRequest{
		Title:    "Thursday gathering",
		Date:     "2026-13-05",
		Time:     "18:00",
		Location: "The usual place",
	})

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestHandler_Update_NotFound(t *testing.T) {
	handler, mockService := setupHandler(t)

	c, w := postJSON(t, dto.UpdateEventRequest{
		EventID:  7,
		Title:    "Thursday gathering",
		Date:     "2026-03-05",
		Time:     "18:00",
		Location: "The usual place",
	})

	mockService.EXPECT().
		UpdateEvent(gomock.Any(), gomock.AssignableToTypeOf(event.UpdateEventInput{})).
		Return(model.NotificationSummary{}, eventrepo.ErrEventNotFound)

	handler.Update(c)

	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}

func TestHandler_Update_PastEvent(t *testing.T) {
	handler, mockService := setupHandler(t)

	c, w := postJSON(t, dto.UpdateEventRequest{
		EventID:  7,
		Title:    "Thursday gathering",
		Date:     "2026-03-05",
		Time:     "18:00",
		Location: "The usual place",
	})

	mockService.EXPECT().
		UpdateEvent(gomock.Any(), gomock.AssignableToTypeOf(event.UpdateEventInput{})).
		Return(model.NotificationSummary{}, event.ErrEventInPast)

	handler.Update(c)

	assert.Equal(t, http.StatusForbidden, w.Result().StatusCode)
}
