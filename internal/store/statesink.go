package store

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
)

const (
	stateKey = "console:state"

	fieldSuperAdmin    = "super_admin"
	fieldTenantID      = "tenant_id"
	fieldTenantRecords = "tenant_records"
)

// StateSink mirrors the derived session state into a redis hash the console
// shell reads. It is the runtime's stand-in for the global state container;
// only the three update operations the session controller needs are exposed.
type StateSink struct {
	rdb *goredis.Client
}

func NewStateSink(rdb *goredis.Client) *StateSink {
	return &StateSink{rdb: rdb}
}

func (s *StateSink) SetSuperAdmin(ctx context.Context, superAdmin bool) error {
	v := "0"
	if superAdmin {
		v = "1"
	}
	if err := s.rdb.HSet(ctx, stateKey, fieldSuperAdmin, v).Err(); err != nil {
		return fmt.Errorf("failed to set super admin flag: %w", err)
	}
	return nil
}

func (s *StateSink) SetActiveTenant(ctx context.Context, tenantID string) error {
	if err := s.rdb.HSet(ctx, stateKey, fieldTenantID, tenantID).Err(); err != nil {
		return fmt.Errorf("failed to set active tenant: %w", err)
	}
	return nil
}

func (s *StateSink) SetTenantRecords(ctx context.Context, tenants []domain.Tenant) error {
	records := make([]json.RawMessage, 0, len(tenants))
	for _, t := range tenants {
		if t.Raw != nil {
			records = append(records, t.Raw)
			continue
		}
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal tenant record: %w", err)
		}
		records = append(records, data)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal tenant records: %w", err)
	}
	if err := s.rdb.HSet(ctx, stateKey, fieldTenantRecords, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to set tenant records: %w", err)
	}
	return nil
}
