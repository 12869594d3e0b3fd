package controllers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/certbridge/certbridge/app/models"
	"github.com/certbridge/certbridge/app/repository"
	"github.com/certbridge/certbridge/internal/pkg/cache"
	"github.com/certbridge/certbridge/internal/pkg/metrics/counter"
)

const dashboardStatsCacheKey = "dashboard:stats"
const dashboardStatsCacheTTL = 60 * time.Second

type dashboardStats struct {
	TotalWebhooks       int64          `json:"total_webhooks"`
	FailedWebhooks      int64          `json:"failed_webhooks"`
	TotalCertificates   int64          `json:"total_certificates"`
	SuccessCertificates int64          `json:"success_certificates"`
	FailedCertificates  int64          `json:"failed_certificates"`
	PendingCertificates int64          `json:"pending_certificates"`
	TotalMappings       int64          `json:"total_mappings"`
	LiveCounters        counter.Totals `json:"live_counters"`
}

// HandleDashboardStats returns aggregate pipeline counters. The counts are
// cached briefly; the dashboard polls and the numbers do not need to be
// real-time exact.
func HandleDashboardStats(c *fiber.Ctx) error {
	if cached, err := cache.Get(dashboardStatsCacheKey); err == nil && cached != "" {
		var stats dashboardStats
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return c.JSON(stats)
		}
	}

	repos := repository.GetGlobalRepositories()
	var stats dashboardStats
	var err error

	if stats.TotalWebhooks, err = repos.WebhookEvent.Count(); err != nil {
		return statsError(c, err)
	}
	if stats.FailedWebhooks, err = repos.WebhookEvent.CountByStatus(models.WebhookStatusFailed); err != nil {
		return statsError(c, err)
	}
	if stats.TotalCertificates, err = repos.Certificate.Count(); err != nil {
		return statsError(c, err)
	}
	if stats.SuccessCertificates, err = repos.Certificate.CountByStatus(models.CertificateStatusSuccess); err != nil {
		return statsError(c, err)
	}
	if stats.FailedCertificates, err = repos.Certificate.CountByStatus(models.CertificateStatusFailed); err != nil {
		return statsError(c, err)
	}
	if stats.PendingCertificates, err = repos.Certificate.CountByStatus(models.CertificateStatusGenerating); err != nil {
		return statsError(c, err)
	}
	if stats.TotalMappings, err = repos.CourseMapping.Count(); err != nil {
		return statsError(c, err)
	}
	if stats.LiveCounters, err = counter.ReadTotals(); err != nil {
		log.Printf("failed to read live counters: %v", err)
	}

	if encoded, err := json.Marshal(stats); err == nil {
		if err := cache.Set(dashboardStatsCacheKey, string(encoded), dashboardStatsCacheTTL); err != nil {
			log.Printf("failed to cache dashboard stats: %v", err)
		}
	}
	return c.JSON(stats)
}

func statsError(c *fiber.Ctx, err error) error {
	log.Printf("dashboard stats query failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load dashboard stats"})
}
