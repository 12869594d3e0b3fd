package certgen

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/certbridge/certbridge/app/models"
	"github.com/certbridge/certbridge/internal/pkg/certopus"
	"github.com/certbridge/certbridge/internal/pkg/docebo"
	"gorm.io/gorm"
)

// LMSGateway is the read surface of the Docebo client the orchestrator
// needs. Both user lookups are exposed so the fallback strategy stays an
// explicit pipeline concern.
type LMSGateway interface {
	GetUserDetails(ctx context.Context, userID int64, domain string) (*docebo.User, error)
	GetUserDetailsAlternative(ctx context.Context, userID int64, domain string) (*docebo.User, error)
	GetCourseDetails(ctx context.Context, courseID int64, domain string) (*docebo.Course, error)
}

// CredentialCreator is the write surface of the Certopus client.
type CredentialCreator interface {
	CreateCredential(ctx context.Context, in certopus.CredentialRequest) (*certopus.Credential, error)
}

// Service orchestrates webhook ingestion and certificate generation. Each
// call is an independent request-scoped unit of work; the only shared state
// is the persisted store and the gateway's cached token.
type Service struct {
	repo        Repository
	lms         LMSGateway
	credentials CredentialCreator
}

// NewService creates an orchestrator from injected collaborators.
func NewService(repo Repository, lms LMSGateway, credentials CredentialCreator) *Service {
	return &Service{repo: repo, lms: lms, credentials: credentials}
}

// Result reports what one delivery turned into.
type Result struct {
	MessageID string
	Domain    string
	// Processed is false for valid deliveries that the relevance filter
	// ignored; ignoring is not an error.
	Processed   bool
	Certificate *models.Certificate
}

// ProcessWebhook runs the full pipeline for one raw delivery: normalize,
// record to the ledger, filter, resolve the mapping, fetch Docebo data,
// render fields and call Certopus. The returned error is nil for both
// processed and ignored outcomes.
func (s *Service) ProcessWebhook(ctx context.Context, rawBody []byte) (*Result, error) {
	event, err := Normalize(rawBody)
	if err != nil {
		// No message id is known; reject without touching the ledger.
		return nil, err
	}

	domain, err := s.repo.EnsureDomain(event.Domain)
	if err != nil {
		return nil, err
	}

	entry := &models.WebhookEvent{
		MessageID:      event.MessageID,
		Event:          event.Event,
		Domain:         event.Domain,
		Payload:        models.JSON(rawBody),
		Status:         models.WebhookStatusReceived,
		DoceboDomainID: &domain.ID,
	}
	if err := s.repo.UpsertWebhookEvent(entry); err != nil {
		return nil, err
	}

	if !event.IsCompletionEvent() {
		s.markLedger(event.MessageID, models.WebhookStatusSuccess, "")
		return &Result{MessageID: event.MessageID, Domain: event.Domain, Processed: false}, nil
	}

	s.markLedger(event.MessageID, models.WebhookStatusProcessing, "")

	cert, err := s.generate(ctx, event)
	if err != nil {
		s.failCertificate(cert, err)
		s.markLedger(event.MessageID, models.WebhookStatusFailed, err.Error())
		// The ledger row exists; the caller distinguishes this from a
		// pre-ledger rejection by the non-empty result.
		return &Result{MessageID: event.MessageID, Domain: event.Domain, Certificate: cert}, err
	}

	s.markLedger(event.MessageID, models.WebhookStatusSuccess, "")
	return &Result{MessageID: event.MessageID, Domain: event.Domain, Processed: true, Certificate: cert}, nil
}

// generate runs steps 2-7 of the state machine. The returned certificate is
// non-nil once a row was created, even when a later step failed.
func (s *Service) generate(ctx context.Context, event CanonicalEvent) (*models.Certificate, error) {
	if err := event.ValidateForGeneration(); err != nil {
		return nil, err
	}

	mapping, err := s.repo.FindActiveCourseMapping(event.Domain, event.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErrorf("no course mapping found for course_id: %d in domain: %s", event.CourseID, event.Domain)
		}
		return nil, err
	}

	user, err := s.lookupUser(ctx, event.UserID, event.Domain)
	if err != nil {
		return nil, err
	}

	course, err := s.lms.GetCourseDetails(ctx, event.CourseID, event.Domain)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, upstreamDataErrorf("failed to get course details for course_id: %d", event.CourseID)
	}

	completionDate, err := ParseEventDate(event.CompletionDate)
	if err != nil {
		return nil, validationErrorf("invalid completion_date: %q", event.CompletionDate)
	}

	cert := &models.Certificate{
		DoceboUserID:    event.UserID,
		DoceboCourseID:  event.CourseID,
		UserEmail:       strings.TrimSpace(user.Email),
		UserName:        user.FullName(),
		CompletionDate:  completionDate,
		Status:          models.CertificateStatusGenerating,
		CourseMappingID: mapping.ID,
		DoceboDomainID:  mapping.DoceboDomainID,
	}
	if err := s.repo.CreateCertificate(cert); err != nil {
		return nil, err
	}

	if err := s.issue(ctx, cert, mapping, user, course, event); err != nil {
		return cert, err
	}
	return cert, nil
}

// issue renders the custom fields, calls Certopus and moves the certificate
// to SUCCESS.
func (s *Service) issue(ctx context.Context, cert *models.Certificate, mapping *models.CourseMapping, user *docebo.User, course *docebo.Course, event CanonicalEvent) error {
	fields := RenderCustomFields(mapping.FieldMappingTable(), user, course, event)

	credential, err := s.credentials.CreateCredential(ctx, certopus.CredentialRequest{
		OrganisationID: mapping.CertopusOrgID,
		EventID:        mapping.CertopusEventID,
		CategoryID:     mapping.CertopusCategoryID,
		RecipientEmail: cert.UserEmail,
		CustomFields:   fields,
		AutoGenerate:   mapping.AutoGenerate,
		AutoPublish:    mapping.AutoPublish,
	})
	if err != nil {
		return err
	}

	cert.CertopusCredentialID = credential.ID
	cert.CertificateURL = credential.URL
	cert.Status = models.CertificateStatusSuccess
	cert.ErrorMessage = ""
	return s.repo.UpdateCertificate(cert)
}

// Retry re-runs generation for one existing certificate against the current
// mapping configuration, overwriting the same row. The prior error is
// cleared optimistically before the attempt.
func (s *Service) Retry(ctx context.Context, certificateUUID string) (*models.Certificate, error) {
	cert, err := s.repo.GetCertificateByUUID(certificateUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErrorf("certificate not found: %s", certificateUUID)
		}
		return nil, err
	}
	mapping := cert.CourseMapping
	if mapping == nil {
		return nil, notFoundErrorf("course mapping for certificate %s no longer exists", certificateUUID)
	}

	cert.Status = models.CertificateStatusGenerating
	cert.ErrorMessage = ""
	if err := s.repo.UpdateCertificate(cert); err != nil {
		return nil, err
	}

	domainName := DefaultDomain
	if mapping.DoceboDomain != nil {
		domainName = mapping.DoceboDomain.Name
	} else if cert.DoceboDomain != nil {
		domainName = cert.DoceboDomain.Name
	}

	if err := s.regenerate(ctx, cert, mapping, domainName); err != nil {
		s.failCertificate(cert, err)
		return cert, err
	}
	return cert, nil
}

func (s *Service) regenerate(ctx context.Context, cert *models.Certificate, mapping *models.CourseMapping, domainName string) error {
	user, err := s.lookupUser(ctx, cert.DoceboUserID, domainName)
	if err != nil {
		return err
	}

	course, err := s.lms.GetCourseDetails(ctx, cert.DoceboCourseID, domainName)
	if err != nil {
		return err
	}
	if course == nil {
		return upstreamDataErrorf("failed to get course details for course_id: %d", cert.DoceboCourseID)
	}

	// Refresh the recipient snapshot; the profile may have changed since
	// the original failure.
	cert.UserEmail = strings.TrimSpace(user.Email)
	cert.UserName = user.FullName()

	event := CanonicalEvent{
		Event:          EventCourseCompleted,
		UserID:         cert.DoceboUserID,
		CourseID:       cert.DoceboCourseID,
		CompletionDate: cert.CompletionDate.Format("2006-01-02"),
		Domain:         domainName,
	}
	return s.issue(ctx, cert, mapping, user, course, event)
}

// lookupUser fetches the recipient profile, trying the alternative endpoint
// when the primary one has no email before giving up.
func (s *Service) lookupUser(ctx context.Context, userID int64, domain string) (*docebo.User, error) {
	user, err := s.lms.GetUserDetails(ctx, userID, domain)
	if err != nil {
		return nil, err
	}

	if user == nil || strings.TrimSpace(user.Email) == "" {
		alt, altErr := s.lms.GetUserDetailsAlternative(ctx, userID, domain)
		if altErr != nil {
			log.Printf("alternative user lookup for user %d failed: %v", userID, altErr)
		} else if alt != nil && strings.TrimSpace(alt.Email) != "" {
			user = alt
		}
	}

	if user == nil {
		return nil, upstreamDataErrorf("failed to get user details for user_id: %d", userID)
	}
	if strings.TrimSpace(user.Email) == "" {
		return nil, upstreamDataErrorf("user email not found for user_id: %d; email is required for certificate generation", userID)
	}
	return user, nil
}

// failCertificate writes a terminal FAILED state best-effort; a write
// failure here must never mask the pipeline error being reported.
func (s *Service) failCertificate(cert *models.Certificate, cause error) {
	if cert == nil || cert.ID == 0 {
		return
	}
	cert.Status = models.CertificateStatusFailed
	cert.ErrorMessage = cause.Error()
	if err := s.repo.UpdateCertificate(cert); err != nil {
		log.Printf("failed to record certificate %s failure: %v", cert.UUID, err)
	}
}

// markLedger updates the ledger row best-effort; see failCertificate.
func (s *Service) markLedger(messageID, status, errorMessage string) {
	if err := s.repo.MarkWebhookStatus(messageID, status, errorMessage); err != nil {
		log.Printf("failed to mark webhook %s as %s: %v", messageID, status, err)
	}
}
