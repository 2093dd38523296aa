package view

import (
	"time"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

// VendorListItem is the public marketplace listing for one vendor.
type VendorListItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Region      *string   `json:"region"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewVendorListItem maps a vendor row to its public listing. The owner user id
// is intentionally not exposed.
func NewVendorListItem(v *domain.Vendor) VendorListItem {
	return VendorListItem{
		ID:          v.ID,
		Name:        v.Name,
		Category:    v.Category,
		Region:      v.Region,
		Description: v.Description,
		Status:      v.Status,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

// VerificationView is the doctor/vendor verification record as seen by its
// owner and by admins.
type VerificationView struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	LicenseNumber string    `json:"licenseNumber,omitempty"`
	HospitalName  *string   `json:"hospitalName,omitempty"`
	Status        string    `json:"status"`
	RejectReason  *string   `json:"rejectReason"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewDoctorVerificationView maps a doctor verification row.
func NewDoctorVerificationView(v *domain.DoctorVerification) VerificationView {
	return VerificationView{
		ID:            v.ID,
		UserID:        v.UserID,
		LicenseNumber: v.LicenseNumber,
		HospitalName:  v.HospitalName,
		Status:        v.Status,
		RejectReason:  v.RejectReason,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

// ProfileView is the caller's own profile as returned by GET /api/me.
type ProfileView struct {
	ID          string  `json:"id"`
	Role        string  `json:"role"`
	DisplayName string  `json:"displayName"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone"`
}

// NewProfileView maps a profile row.
func NewProfileView(p *domain.Profile) ProfileView {
	return ProfileView{
		ID:          p.ID,
		Role:        p.Role,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Phone:       p.Phone,
	}
}
