// Package domain defines the persistence models for the MediHub marketplace:
// profiles, vendors, verification records, leads with their status history,
// attachments and message threads, audit logs, and notification deliveries.
// These types are mapped
// with GORM and form the core data layer of the application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Profile roles. Every authenticated user has exactly one profile row whose
// role decides which operations are permitted.
const (
	RoleDoctor = "doctor"
	RoleVendor = "vendor"
	RoleAdmin  = "admin"
)

// Lead statuses. There is deliberately no transition graph beyond the
// doctor-may-only-cancel rule enforced in the service layer; any enumerated
// value is a legal target for vendor/admin callers.
const (
	LeadStatusSubmitted    = "submitted"
	LeadStatusInProgress   = "in_progress"
	LeadStatusQuotePending = "quote_pending"
	LeadStatusNegotiating  = "negotiating"
	LeadStatusContracted   = "contracted"
	LeadStatusHold         = "hold"
	LeadStatusCanceled     = "canceled"
	LeadStatusClosed       = "closed"
)

// LeadStatuses enumerates every legal lead status value.
var LeadStatuses = []string{
	LeadStatusSubmitted,
	LeadStatusInProgress,
	LeadStatusQuotePending,
	LeadStatusNegotiating,
	LeadStatusContracted,
	LeadStatusHold,
	LeadStatusCanceled,
	LeadStatusClosed,
}

// IsLeadStatus reports whether s is one of the enumerated lead statuses.
func IsLeadStatus(s string) bool {
	for _, v := range LeadStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Verification statuses shared by doctor and vendor verification records.
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// Vendor publication statuses.
const (
	VendorStatusPending   = "pending"
	VendorStatusPublished = "published"
	VendorStatusHidden    = "hidden"
)

// Profile is the per-user account record resolved by the authorization guard.
// The auth provider (session issuance, OAuth linking) lives outside this
// service; only the subject id and role are consumed here.
type Profile struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	Role        string         `json:"role"         gorm:"type:varchar(16);not null;check:role IN ('doctor','vendor','admin')"`
	DisplayName string         `json:"display_name" gorm:"type:varchar(100);not null"`
	Email       string         `json:"email"        gorm:"type:varchar(255);not null"`
	Phone       *string        `json:"phone,omitempty" gorm:"type:varchar(32)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Vendor is a service provider listed in the marketplace. Leads always target
// a vendor; only published vendors are visible to doctors.
type Vendor struct {
	ID          string         `json:"id"            gorm:"type:char(36);primaryKey"`
	OwnerUserID string         `json:"owner_user_id" gorm:"type:char(36);not null;index"`
	Name        string         `json:"name"          gorm:"type:varchar(200);not null"`
	Category    string         `json:"category"      gorm:"type:varchar(64);not null;index"`
	Region      *string        `json:"region,omitempty" gorm:"type:varchar(64)"`
	Description *string        `json:"description,omitempty" gorm:"type:text"`
	Status      string         `json:"status"        gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','published','hidden')"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"             gorm:"index"`
}

// TableName returns the database table name for Vendor.
func (Vendor) TableName() string { return "vendors" }

// DoctorVerification gates doctor-only operations: a doctor may create leads
// only while its record's status is exactly "approved".
type DoctorVerification struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string    `json:"user_id"        gorm:"type:char(36);not null;uniqueIndex"`
	LicenseNumber string    `json:"license_number" gorm:"type:varchar(64);not null"`
	HospitalName  *string   `json:"hospital_name,omitempty" gorm:"type:varchar(200)"`
	Status        string    `json:"status"         gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','approved','rejected')"`
	RejectReason  *string   `json:"reject_reason,omitempty" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for DoctorVerification.
func (DoctorVerification) TableName() string { return "doctor_verifications" }

// VendorVerification is the vendor-side counterpart of DoctorVerification.
type VendorVerification struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID         string    `json:"user_id"         gorm:"type:char(36);not null;uniqueIndex"`
	BusinessNumber string    `json:"business_number" gorm:"type:varchar(32);not null"`
	Status         string    `json:"status"          gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','approved','rejected')"`
	RejectReason   *string   `json:"reject_reason,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for VendorVerification.
func (VendorVerification) TableName() string { return "vendor_verifications" }

// Lead is an inquiry a doctor sends to a vendor. DoctorUserID and VendorID are
// immutable after creation; the status column is mutated only through the
// status-transition operation. Leads are never physically deleted.
type Lead struct {
	ID               string    `json:"id"               gorm:"type:char(36);primaryKey"`
	DoctorUserID     string    `json:"doctor_user_id"   gorm:"type:char(36);not null;index:idx_doctor_leads"`
	VendorID         string    `json:"vendor_id"        gorm:"type:char(36);not null;index:idx_vendor_leads"`
	ServiceName      *string   `json:"service_name,omitempty" gorm:"type:varchar(200)"`
	ContactName      string    `json:"contact_name"     gorm:"type:varchar(100);not null"`
	ContactPhone     string    `json:"contact_phone"    gorm:"type:varchar(32);not null"`
	ContactEmail     *string   `json:"contact_email,omitempty" gorm:"type:varchar(255)"`
	PreferredChannel *string   `json:"preferred_channel,omitempty" gorm:"type:varchar(32)"`
	PreferredTime    *string   `json:"preferred_time,omitempty" gorm:"type:varchar(64)"`
	Content          string    `json:"content"          gorm:"type:text;not null"`
	Status           string    `json:"status"           gorm:"type:varchar(16);not null;default:'submitted';index"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Vendor is the denormalized target; only id and name are surfaced as the
	// lead's vendor summary.
	Vendor Vendor `json:"-" gorm:"foreignKey:VendorID;references:ID"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }

// LeadStatusHistory is the append-only audit trail of status changes. Exactly
// one row exists per accepted transition, including the initial
// null → submitted row written at creation. Rows are never updated or deleted.
type LeadStatusHistory struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	LeadID     string    `json:"lead_id"     gorm:"type:char(36);not null;index:idx_lead_history,priority:1"`
	FromStatus *string   `json:"from_status" gorm:"type:varchar(16)"`
	ToStatus   string    `json:"to_status"   gorm:"type:varchar(16);not null"`
	ChangedBy  string    `json:"changed_by"  gorm:"type:char(36);not null"`
	CreatedAt  time.Time `json:"created_at"  gorm:"index:idx_lead_history,priority:2"`

	Lead Lead `json:"-" gorm:"foreignKey:LeadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for LeadStatusHistory.
func (LeadStatusHistory) TableName() string { return "lead_status_history" }

// LeadAttachment references an externally managed file record attached to a
// lead at creation time. Attachment writes are best-effort; a failed batch
// never rolls back the lead itself.
type LeadAttachment struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	LeadID    string    `json:"lead_id"    gorm:"type:char(36);not null;index"`
	FileID    string    `json:"file_id"    gorm:"type:char(36);not null"`
	CreatedBy string    `json:"created_by" gorm:"type:char(36);not null"`
	CreatedAt time.Time `json:"created_at"`

	Lead Lead `json:"-" gorm:"foreignKey:LeadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for LeadAttachment.
func (LeadAttachment) TableName() string { return "lead_attachments" }

// LeadMessage is one entry of a lead's message thread between the doctor and
// the vendor. ReadAt is stamped when the counterparty marks the message read;
// a sender never reads their own messages. Rows are append-only apart from
// that single column.
type LeadMessage struct {
	ID           string     `json:"id"             gorm:"type:char(36);primaryKey"`
	LeadID       string     `json:"lead_id"        gorm:"type:char(36);not null;index:idx_lead_messages,priority:1"`
	SenderUserID string     `json:"sender_user_id" gorm:"type:char(36);not null"`
	Content      string     `json:"content"        gorm:"type:text;not null"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"     gorm:"index:idx_lead_messages,priority:2"`

	Lead Lead `json:"-" gorm:"foreignKey:LeadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for LeadMessage.
func (LeadMessage) TableName() string { return "lead_messages" }

// AuditLog records a privileged mutation. Inserts are fire-and-forget: a
// failed audit write is logged, never surfaced to the caller.
type AuditLog struct {
	ID          string    `json:"id"            gorm:"type:char(36);primaryKey"`
	ActorUserID string    `json:"actor_user_id" gorm:"type:char(36);not null;index"`
	Action      string    `json:"action"        gorm:"type:varchar(100);not null;index"`
	TargetType  string    `json:"target_type"   gorm:"type:varchar(64);not null;index"`
	TargetID    string    `json:"target_id"     gorm:"type:char(36);not null"`
	Metadata    *string   `json:"metadata,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"    gorm:"index"`
}

// TableName returns the database table name for AuditLog.
func (AuditLog) TableName() string { return "audit_logs" }

// NotificationDelivery is the outcome log of one outbound notification
// attempt (after retries). Either SentAt or FailedAt is set, never both.
type NotificationDelivery struct {
	ID           string     `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string     `json:"user_id"       gorm:"type:char(36);not null;index"`
	Type         string     `json:"type"          gorm:"type:varchar(64);not null"`
	Channel      string     `json:"channel"       gorm:"type:varchar(16);not null"`
	Provider     string     `json:"provider"      gorm:"type:varchar(32);not null"`
	Recipient    string     `json:"recipient"     gorm:"type:varchar(255);not null"`
	Subject      string     `json:"subject"       gorm:"type:varchar(255);not null"`
	BodyPreview  string     `json:"body_preview"  gorm:"type:varchar(255);not null"`
	RetryCount   int        `json:"retry_count"   gorm:"not null;default:0"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	FailedAt     *time.Time `json:"failed_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName returns the database table name for NotificationDelivery.
func (NotificationDelivery) TableName() string { return "notification_deliveries" }

// RateLimitEvent is one counted unit of a rate-limited action. Window totals
// are computed by counting events with created_at inside the window; target
// cooldowns look at the newest event for (user, action, target).
type RateLimitEvent struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index:idx_rl_user_action,priority:1"`
	Action    string    `json:"action"     gorm:"type:varchar(64);not null;index:idx_rl_user_action,priority:2"`
	TargetID  *string   `json:"target_id,omitempty" gorm:"type:char(36)"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_rl_user_action,priority:3"`
}

// TableName returns the database table name for RateLimitEvent.
func (RateLimitEvent) TableName() string { return "rate_limit_events" }
