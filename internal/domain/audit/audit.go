package audit

import (
	"context"
	"encoding/json"

	"planivo/internal/platform/querier"
)

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

// Record appends an audit row. Details are serialized as JSON; a nil details
// value stores NULL.
func (s *Service) Record(ctx context.Context, organizationID, actorID, action, entityType, entityID, requestID string, details any) error {
	var detailsJSON []byte
	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			return err
		}
		detailsJSON = payload
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (organization_id, actor_staff_id, action, entity_type, entity_id, request_id, details)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, organizationID, actorID, action, entityType, entityID, requestID, detailsJSON)
	return err
}
