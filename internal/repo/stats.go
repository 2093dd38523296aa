package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/medihub/go-medihub-backend/internal/domain"
)

// LeadStats returns the number of leads visible under scope together with
// the greatest UpdatedAt among them. The HTTP layer combines both into a
// weak ETag for the list endpoint: a new lead changes the count, a status
// transition bumps the timestamp.
//
// maxUpdatedAt is nil when no leads are visible.
func LeadStats(ctx context.Context, db *gorm.DB, scope LeadScope) (count int64, maxUpdatedAt *time.Time, err error) {
	q := scopeLeads(db.WithContext(ctx).Model(&domain.Lead{}), scope)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// ORDER BY + LIMIT instead of MAX(): SQLite returns MAX() of a time
	// column as TEXT, which gorm will not scan into time.Time.
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
