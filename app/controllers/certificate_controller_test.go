package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/certbridge/certbridge/app/models"
	"github.com/certbridge/certbridge/app/repository"
	"github.com/certbridge/certbridge/internal/pkg/certgen"
)

func newCertificateApp(t *testing.T, stub *stubPipeline) *fiber.App {
	t.Helper()
	usePipeline(t, stub)
	app := fiber.New()
	app.Post("/certificates/:uuid/retry", HandleRetryCertificate)
	return app
}

func postRetry(t *testing.T, app *fiber.App, uuid string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/certificates/"+uuid+"/retry", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestHandleRetryCertificateSuccess(t *testing.T) {
	stub := &stubPipeline{
		cert: &models.Certificate{
			Status:         models.CertificateStatusSuccess,
			CertificateURL: "https://certopus.example/c/abc123",
		},
	}
	app := newCertificateApp(t, stub)

	status, body := postRetry(t, app, "0b53cdd2-4f38-4a9d-bb44-5a1f7a67c39a")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "https://certopus.example/c/abc123", body["certificateUrl"])
	assert.Equal(t, "0b53cdd2-4f38-4a9d-bb44-5a1f7a67c39a", stub.lastUUID)
}

func TestHandleRetryCertificateUnknown(t *testing.T) {
	app := newCertificateApp(t, &stubPipeline{
		retryErr: &certgen.NotFoundError{Reason: "certificate not found: unknown-uuid"},
	})

	status, body := postRetry(t, app, "unknown-uuid")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Certificate not found", body["error"])
}

func TestHandleRetryCertificateFailure(t *testing.T) {
	app := newCertificateApp(t, &stubPipeline{
		retryErr: errors.New("certopus api rate limit exceeded"),
	})

	status, body := postRetry(t, app, "0b53cdd2-4f38-4a9d-bb44-5a1f7a67c39a")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to regenerate certificate", body["error"])
	assert.Contains(t, body["message"], "rate limit")
}

type stubCertificateRepo struct {
	certs map[string]*models.Certificate
}

func (s *stubCertificateRepo) GetByID(_ uint) (*models.Certificate, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCertificateRepo) GetByUUID(uuid string) (*models.Certificate, error) {
	if cert, ok := s.certs[uuid]; ok {
		return cert, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCertificateRepo) List(_, _ int) ([]models.Certificate, error) { return nil, nil }

func (s *stubCertificateRepo) ListByStatus(_ string, _, _ int) ([]models.Certificate, error) {
	return nil, nil
}

func (s *stubCertificateRepo) Count() (int64, error) { return 0, nil }

func (s *stubCertificateRepo) CountByStatus(_ string) (int64, error) { return 0, nil }

func TestHandleGetCertificate(t *testing.T) {
	stub := &stubCertificateRepo{certs: map[string]*models.Certificate{
		"0b53cdd2-4f38-4a9d-bb44-5a1f7a67c39a": {
			UUID:           "0b53cdd2-4f38-4a9d-bb44-5a1f7a67c39a",
			Status:         models.CertificateStatusSuccess,
			CertificateURL: "https://certopus.example/c/abc123",
		},
	}}
	prev := certificateRepo
	certificateRepo = func() repository.CertificateRepository { return stub }
	t.Cleanup(func() { certificateRepo = prev })

	app := fiber.New()
	app.Get("/certificates/:uuid", HandleGetCertificate)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/certificates/0b53cdd2-4f38-4a9d-bb44-5a1f7a67c39a", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var cert models.Certificate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cert))
	resp.Body.Close()
	assert.Equal(t, "https://certopus.example/c/abc123", cert.CertificateURL)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/certificates/ffffffff-0000-0000-0000-000000000000", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
