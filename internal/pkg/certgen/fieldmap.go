package certgen

import (
	"github.com/certbridge/certbridge/internal/pkg/docebo"
)

// Source selectors a course mapping may bind a certificate field to. Any
// unrecognized selector is treated as custom_static, i.e. the configured
// string is embedded verbatim.
const (
	SelectorCourseName        = "course_name"
	SelectorCompletionDate    = "completion_date"
	SelectorUserName          = "user_name"
	SelectorUserEmail         = "user_email"
	SelectorCourseDescription = "course_description"
	SelectorEnrollmentDate    = "enrollment_date"
	SelectorCustomStatic      = "custom_static"
)

// Standard placeholder keys filled in after explicit mappings so that even
// an empty mapping table yields a usable certificate.
const (
	FieldKeyRecipientName  = "{Name}"
	FieldKeyCourseName     = "{course_name}"
	FieldKeyCompletionDate = "{completion_date}"
)

// RenderCustomFields turns a field-mapping table plus the resolved user,
// course and event data into the flat custom-fields document sent to
// Certopus.
func RenderCustomFields(table map[string]string, user *docebo.User, course *docebo.Course, ev CanonicalEvent) map[string]string {
	fields := make(map[string]string, len(table)+3)

	for key, selector := range table {
		switch selector {
		case SelectorCourseName:
			fields[key] = course.Name
		case SelectorCompletionDate:
			fields[key] = FormatCertificateDate(ev.CompletionDate)
		case SelectorUserName:
			fields[key] = user.FullName()
		case SelectorUserEmail:
			fields[key] = user.Email
		case SelectorCourseDescription:
			fields[key] = course.Description
		case SelectorEnrollmentDate:
			date := ev.EnrollmentDate
			if date == "" {
				date = ev.CompletionDate
			}
			fields[key] = FormatCertificateDate(date)
		default:
			// custom_static and anything unknown: the configured value is
			// the literal text to embed.
			fields[key] = selector
		}
	}

	if fields[FieldKeyRecipientName] == "" {
		fields[FieldKeyRecipientName] = user.FullName()
	}
	if fields[FieldKeyCourseName] == "" {
		fields[FieldKeyCourseName] = course.Name
	}
	if fields[FieldKeyCompletionDate] == "" && ev.CompletionDate != "" {
		fields[FieldKeyCompletionDate] = FormatCertificateDate(ev.CompletionDate)
	}
	return fields
}
