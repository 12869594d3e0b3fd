package controllers

import (
	"context"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/certbridge/certbridge/app/models"
	"github.com/certbridge/certbridge/app/repository"
	"github.com/certbridge/certbridge/internal/pkg/certgen"
	"github.com/certbridge/certbridge/internal/pkg/certopus"
	"github.com/certbridge/certbridge/internal/pkg/database"
	"github.com/certbridge/certbridge/internal/pkg/docebo"
	"github.com/certbridge/certbridge/internal/pkg/env"
)

// The gateway clients are shared across requests so their cached auth
// token survives between deliveries.
var (
	doceboOnce     sync.Once
	doceboClient   *docebo.Client
	certopusOnce   sync.Once
	certopusClient *certopus.Client
)

func getDoceboClient() *docebo.Client {
	doceboOnce.Do(func() {
		doceboClient = docebo.NewClientFromEnv()
	})
	return doceboClient
}

func getCertopusClient() *certopus.Client {
	certopusOnce.Do(func() {
		certopusClient = certopus.NewClientFromEnv()
	})
	return certopusClient
}

// pipeline is the slice of certgen.Service the handlers depend on.
type pipeline interface {
	ProcessWebhook(ctx context.Context, rawBody []byte) (*certgen.Result, error)
	Retry(ctx context.Context, certificateUUID string) (*models.Certificate, error)
}

// pipelineService wires the orchestrator for one request. Handler tests
// swap it for a stub pipeline.
var pipelineService = func() pipeline {
	repo := certgen.NewRepository(database.GetDB(), certgen.DomainDefaults{
		APIURL:   env.GetEnv("DOCEBO_API_URL", "https://doceboapi.docebosaas.com"),
		Username: env.GetEnv("DOCEBO_API_USERNAME", ""),
		Password: env.GetEnv("DOCEBO_API_PASSWORD", ""),
	})
	return certgen.NewService(repo, getDoceboClient(), getCertopusClient())
}

var (
	webhookEventRepo = func() repository.WebhookEventRepository {
		return repository.GetGlobalFactory().GetWebhookEventRepository()
	}
	certificateRepo = func() repository.CertificateRepository {
		return repository.GetGlobalFactory().GetCertificateRepository()
	}
)

// parsePagination reads page/page_size query params with sane bounds.
func parsePagination(c *fiber.Ctx) (page, pageSize, offset int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.Query("page_size", "50"))
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return page, pageSize, (page - 1) * pageSize
}
