package certgen

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventCourseCompleted is the one event kind that triggers certificate
// generation; everything else is recorded and ignored.
const EventCourseCompleted = "course.enrollment.completed"

// DefaultDomain is the sentinel used when a delivery does not name its
// source instance. Deliveries without a domain cannot be routed to a
// per-domain mapping beyond this default bucket; that loss is deliberate.
const DefaultDomain = "default"

// CanonicalEvent is the shape-independent representation of an inbound
// delivery after normalization. Dates stay in their wire form; they are
// parsed only when a certificate row is actually created.
type CanonicalEvent struct {
	Event          string
	UserID         int64
	CourseID       int64
	CompletionDate string
	EnrollmentDate string
	Status         string
	MessageID      string
	Domain         string
}

// IsCompletionEvent applies the relevance filter: only completed
// course-enrollment events proceed to generation.
func (e CanonicalEvent) IsCompletionEvent() bool {
	if e.Event != EventCourseCompleted {
		return false
	}
	return e.Status == "" || e.Status == "completed"
}

// ValidateForGeneration checks the fields generation actually needs. It is
// applied after the relevance filter so irrelevant deliveries with partial
// payloads are still recorded rather than rejected.
func (e CanonicalEvent) ValidateForGeneration() error {
	if e.UserID <= 0 {
		return validationErrorf("webhook payload missing a valid user_id")
	}
	if e.CourseID <= 0 {
		return validationErrorf("webhook payload missing a valid course_id")
	}
	if _, err := ParseEventDate(e.CompletionDate); err != nil {
		return validationErrorf("webhook payload missing a valid completion_date: %q", e.CompletionDate)
	}
	return nil
}

// webhookPayload is the inner payload object shared by both shapes.
type webhookPayload struct {
	UserID         *int64 `json:"user_id"`
	CourseID       *int64 `json:"course_id"`
	CompletionDate string `json:"completion_date"`
	EnrollmentDate string `json:"enrollment_date"`
	Status         string `json:"status"`
	FiredAt        string `json:"fired_at"`
}

// webhookEnvelope is the flat top-level document. The event key is a tagged
// union: either a nested {"body": {...}} envelope or a bare event string.
type webhookEnvelope struct {
	Event          json.RawMessage `json:"event"`
	MessageID      string          `json:"message_id"`
	OriginalDomain string          `json:"original_domain"`
	Payload        *webhookPayload `json:"payload"`
	UserID         *int64          `json:"user_id"`
	CourseID       *int64          `json:"course_id"`
	CompletionDate string          `json:"completion_date"`
	EnrollmentDate string          `json:"enrollment_date"`
	Status         string          `json:"status"`
}

type nestedEventBody struct {
	Event          string          `json:"event"`
	MessageID      string          `json:"message_id"`
	OriginalDomain string          `json:"original_domain"`
	Payload        *webhookPayload `json:"payload"`
}

// Normalize parses one raw webhook body into a canonical event. It accepts
// the nested event.body envelope and the flat legacy document and fails
// closed with a ValidationError on anything else; in that case no ledger
// row exists yet and the handler rejects the request outright.
func Normalize(raw []byte) (CanonicalEvent, error) {
	var doc webhookEnvelope
	if err := json.Unmarshal(raw, &doc); err != nil {
		return CanonicalEvent{}, validationErrorf("malformed webhook payload: %v", err)
	}
	if len(doc.Event) == 0 {
		return CanonicalEvent{}, validationErrorf("unrecognized webhook payload shape: missing event")
	}

	if isJSONObject(doc.Event) {
		return normalizeNested(doc.Event)
	}

	var eventKind string
	if err := json.Unmarshal(doc.Event, &eventKind); err != nil {
		return CanonicalEvent{}, validationErrorf("unrecognized webhook payload shape: event is neither envelope nor string")
	}
	return normalizeFlat(eventKind, doc), nil
}

func normalizeNested(raw json.RawMessage) (CanonicalEvent, error) {
	var outer struct {
		Body *nestedEventBody `json:"body"`
	}
	if err := json.Unmarshal(raw, &outer); err != nil || outer.Body == nil {
		return CanonicalEvent{}, validationErrorf("unrecognized webhook payload shape: event envelope has no body")
	}

	body := outer.Body
	out := CanonicalEvent{
		Event:     body.Event,
		MessageID: body.MessageID,
		Domain:    body.OriginalDomain,
	}
	if body.Payload != nil {
		applyPayload(&out, body.Payload)
	}
	applyDefaults(&out)
	return out, nil
}

func normalizeFlat(eventKind string, doc webhookEnvelope) CanonicalEvent {
	out := CanonicalEvent{
		Event:     eventKind,
		MessageID: doc.MessageID,
		Domain:    doc.OriginalDomain,
	}
	if doc.Payload != nil {
		applyPayload(&out, doc.Payload)
	} else {
		// Legacy senders put the payload fields directly on the document.
		if doc.UserID != nil {
			out.UserID = *doc.UserID
		}
		if doc.CourseID != nil {
			out.CourseID = *doc.CourseID
		}
		out.CompletionDate = doc.CompletionDate
		out.EnrollmentDate = doc.EnrollmentDate
		out.Status = doc.Status
	}
	applyDefaults(&out)
	return out
}

func applyPayload(out *CanonicalEvent, p *webhookPayload) {
	if p.UserID != nil {
		out.UserID = *p.UserID
	}
	if p.CourseID != nil {
		out.CourseID = *p.CourseID
	}
	out.CompletionDate = p.CompletionDate
	out.EnrollmentDate = p.EnrollmentDate
	out.Status = p.Status
}

// applyDefaults fills the lossy fallbacks: a synthesized message id defeats
// deduplication for senders that omit one, and the sentinel domain lumps
// unattributed deliveries together. Both are known limitations kept on
// purpose.
func applyDefaults(out *CanonicalEvent) {
	out.Event = strings.TrimSpace(out.Event)
	out.Status = strings.ToLower(strings.TrimSpace(out.Status))
	out.MessageID = strings.TrimSpace(out.MessageID)
	out.Domain = strings.TrimSpace(out.Domain)
	if out.MessageID == "" {
		out.MessageID = fmt.Sprintf("webhook_%d", time.Now().UnixMilli())
	}
	if out.Domain == "" {
		out.Domain = DefaultDomain
	}
}

// eventDateLayouts are the wire formats Docebo uses for completion and
// enrollment dates.
var eventDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// ParseEventDate parses a Docebo date string.
func ParseEventDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %q", value)
}

// FormatCertificateDate renders a date the way it appears on the issued
// certificate, e.g. "March 1, 2024". Unparseable input is passed through
// unchanged rather than dropped.
func FormatCertificateDate(value string) string {
	t, err := ParseEventDate(value)
	if err != nil {
		return value
	}
	return t.Format("January 2, 2006")
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}
