package certgen

import (
	"testing"

	"github.com/certbridge/certbridge/internal/pkg/docebo"
)

func TestRenderCustomFields(t *testing.T) {
	user := &docebo.User{ID: 7, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
	course := &docebo.Course{ID: 55, Name: "Go Fundamentals", Description: "An introduction"}
	ev := CanonicalEvent{CompletionDate: "2024-03-01 10:15:00", EnrollmentDate: "2024-01-15"}

	table := map[string]string{
		"{Name}":     "user_name",
		"{Date}":     "completion_date",
		"{Course}":   "course_name",
		"{Email}":    "user_email",
		"{About}":    "course_description",
		"{Enrolled}": "enrollment_date",
		"{Venue}":    "Online Academy",
	}

	fields := RenderCustomFields(table, user, course, ev)

	want := map[string]string{
		"{Name}":     "Jane Doe",
		"{Date}":     "March 1, 2024",
		"{Course}":   "Go Fundamentals",
		"{Email}":    "jane@example.com",
		"{About}":    "An introduction",
		"{Enrolled}": "January 15, 2024",
		// Unknown selectors embed the configured text verbatim.
		"{Venue}": "Online Academy",
	}
	for key, wantValue := range want {
		if fields[key] != wantValue {
			t.Fatalf("fields[%q] = %q, want %q", key, fields[key], wantValue)
		}
	}
}

func TestRenderCustomFieldsDefaults(t *testing.T) {
	user := &docebo.User{ID: 7, Username: "jdoe", Email: "jane@example.com"}
	course := &docebo.Course{ID: 55, Name: "Go Fundamentals"}
	ev := CanonicalEvent{CompletionDate: "2024-03-01"}

	fields := RenderCustomFields(nil, user, course, ev)

	if fields[FieldKeyRecipientName] != "jdoe" {
		t.Fatalf("recipient name = %q, want username fallback", fields[FieldKeyRecipientName])
	}
	if fields[FieldKeyCourseName] != "Go Fundamentals" {
		t.Fatalf("course name = %q", fields[FieldKeyCourseName])
	}
	if fields[FieldKeyCompletionDate] != "March 1, 2024" {
		t.Fatalf("completion date = %q", fields[FieldKeyCompletionDate])
	}
}

func TestRenderCustomFieldsExplicitMappingWinsOverDefault(t *testing.T) {
	user := &docebo.User{ID: 7, FirstName: "Jane", LastName: "Doe"}
	course := &docebo.Course{ID: 55, Name: "Go Fundamentals"}
	ev := CanonicalEvent{CompletionDate: "2024-03-01"}

	table := map[string]string{"{Name}": "Certificate Holder"}
	fields := RenderCustomFields(table, user, course, ev)

	if fields["{Name}"] != "Certificate Holder" {
		t.Fatalf("explicit mapping overridden: %q", fields["{Name}"])
	}
}

func TestRenderCustomFieldsEnrollmentFallsBackToCompletion(t *testing.T) {
	user := &docebo.User{ID: 7, FirstName: "Jane"}
	course := &docebo.Course{ID: 55, Name: "Go Fundamentals"}
	ev := CanonicalEvent{CompletionDate: "2024-03-01"}

	fields := RenderCustomFields(map[string]string{"{When}": "enrollment_date"}, user, course, ev)
	if fields["{When}"] != "March 1, 2024" {
		t.Fatalf("enrollment fallback = %q", fields["{When}"])
	}
}
