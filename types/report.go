package types

import "time"

// Report categories accepted by the user-report endpoint.
const (
	ReportCategoryHarassment    = "harassment"
	ReportCategorySpam          = "spam"
	ReportCategoryInappropriate = "inappropriate_content"
	ReportCategoryFakeProfile   = "fake_profile"
	ReportCategoryScam          = "scam"
	ReportCategoryOther         = "other"
)

// ValidReportCategories lists the accepted report categories in the order
// they are surfaced in validation messages.
var ValidReportCategories = []string{
	ReportCategoryHarassment,
	ReportCategorySpam,
	ReportCategoryInappropriate,
	ReportCategoryFakeProfile,
	ReportCategoryScam,
	ReportCategoryOther,
}

// ValidReportCategory reports whether category is one of the accepted
// values.
func ValidReportCategory(category string) bool {
	for _, c := range ValidReportCategories {
		if c == category {
			return true
		}
	}
	return false
}

// UserReport records one user reporting another.
type UserReport struct {
	ID int `json:"id" db:"id"`

	// ReporterID is the user who filed the report.
	ReporterID int `json:"reporter_id" db:"reporter_id"`

	// ReportedUserID is the user being reported.
	ReportedUserID int `json:"reported_user_id" db:"reported_user_id"`

	// Category is one of ValidReportCategories.
	Category string `json:"category" db:"category"`

	Description string `json:"description" db:"description"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
