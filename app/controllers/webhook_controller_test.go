package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/certbridge/certbridge/app/models"
	"github.com/certbridge/certbridge/app/repository"
	"github.com/certbridge/certbridge/internal/pkg/certgen"
)

type stubPipeline struct {
	result     *certgen.Result
	processErr error
	cert       *models.Certificate
	retryErr   error
	lastUUID   string
}

func (s *stubPipeline) ProcessWebhook(_ context.Context, _ []byte) (*certgen.Result, error) {
	return s.result, s.processErr
}

func (s *stubPipeline) Retry(_ context.Context, certificateUUID string) (*models.Certificate, error) {
	s.lastUUID = certificateUUID
	return s.cert, s.retryErr
}

func usePipeline(t *testing.T, stub *stubPipeline) {
	t.Helper()
	prev := pipelineService
	pipelineService = func() pipeline { return stub }
	t.Cleanup(func() { pipelineService = prev })
}

func newWebhookApp(t *testing.T, stub *stubPipeline) *fiber.App {
	t.Helper()
	usePipeline(t, stub)
	app := fiber.New()
	app.Post("/webhook", HandleDoceboWebhook)
	return app
}

func postWebhook(t *testing.T, app *fiber.App) (int, map[string]interface{}) {
	t.Helper()
	payload := `{"event":"course.enrollment.completed","message_id":"msg-1","payload":{"user_id":7,"course_id":42}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestHandleDoceboWebhookProcessed(t *testing.T) {
	app := newWebhookApp(t, &stubPipeline{
		result: &certgen.Result{MessageID: "msg-1", Domain: "default", Processed: true},
	})

	status, body := postWebhook(t, app)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Certificate generation initiated successfully", body["message"])
}

func TestHandleDoceboWebhookIgnored(t *testing.T) {
	app := newWebhookApp(t, &stubPipeline{
		result: &certgen.Result{MessageID: "msg-1", Domain: "default", Processed: false},
	})

	status, body := postWebhook(t, app)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Webhook received but not processed (not a course completion)", body["message"])
}

func TestHandleDoceboWebhookInvalidPayload(t *testing.T) {
	app := newWebhookApp(t, &stubPipeline{
		processErr: &certgen.ValidationError{Reason: "missing required field: event"},
	})

	status, body := postWebhook(t, app)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid webhook payload", body["error"])
	assert.Equal(t, "missing required field: event", body["message"])
}

// A storage outage before the ledger write leaves no result at all. The
// handler must still answer 500 instead of crashing on the missing
// domain.
func TestHandleDoceboWebhookStorageFailure(t *testing.T) {
	app := newWebhookApp(t, &stubPipeline{
		processErr: errors.New("failed to record webhook event: dial tcp 127.0.0.1:3306: connect: connection refused"),
	})

	status, body := postWebhook(t, app)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to process webhook", body["error"])
	assert.Contains(t, body["message"], "connection refused")
}

func TestHandleDoceboWebhookPipelineFailure(t *testing.T) {
	app := newWebhookApp(t, &stubPipeline{
		result:     &certgen.Result{MessageID: "msg-1", Domain: "default"},
		processErr: errors.New("no course mapping found for course_id: 42 in domain: default"),
	})

	status, body := postWebhook(t, app)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to process webhook", body["error"])
	assert.Contains(t, body["message"], "no course mapping found")
}

type stubWebhookEventRepo struct {
	events map[string]*models.WebhookEvent
}

func (s *stubWebhookEventRepo) GetByMessageID(messageID string) (*models.WebhookEvent, error) {
	if event, ok := s.events[messageID]; ok {
		return event, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubWebhookEventRepo) List(_, _ int) ([]models.WebhookEvent, error) {
	return nil, nil
}

func (s *stubWebhookEventRepo) ListByStatus(_ string, _, _ int) ([]models.WebhookEvent, error) {
	return nil, nil
}

func (s *stubWebhookEventRepo) Count() (int64, error) { return 0, nil }

func (s *stubWebhookEventRepo) CountByStatus(_ string) (int64, error) { return 0, nil }

func TestHandleGetWebhookEvent(t *testing.T) {
	stub := &stubWebhookEventRepo{events: map[string]*models.WebhookEvent{
		"msg-1": {MessageID: "msg-1", Status: models.WebhookStatusSuccess},
	}}
	prev := webhookEventRepo
	webhookEventRepo = func() repository.WebhookEventRepository { return stub }
	t.Cleanup(func() { webhookEventRepo = prev })

	app := fiber.New()
	app.Get("/webhooks/:messageId", HandleGetWebhookEvent)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/webhooks/msg-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var event models.WebhookEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&event))
	resp.Body.Close()
	assert.Equal(t, "msg-1", event.MessageID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/webhooks/msg-unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
