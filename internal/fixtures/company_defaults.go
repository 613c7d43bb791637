package fixtures

import (
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/shift"
)

// ==========================================
// DEFAULT SHIFTS
// ==========================================

// GetDefaultShifts returns the shifts every new company starts with.
// Admins can rename or delete them; employees are not assigned automatically.
func GetDefaultShifts(companyID string) []shift.Shift {
	return []shift.Shift{
		// Standard office hours
		{CompanyID: companyID, Name: "Hành chính", StartTime: "08:00", EndTime: "17:00"},
		{CompanyID: companyID, Name: "Ca sáng", StartTime: "06:00", EndTime: "14:00"},
		{CompanyID: companyID, Name: "Ca chiều", StartTime: "14:00", EndTime: "22:00"},
		// Overnight, compared on the same calendar day
		{CompanyID: companyID, Name: "Ca đêm", StartTime: "22:00", EndTime: "06:00"},
	}
}
