// Package audit writes the append-only audit trail. Recording is best
// effort: a failed write is logged and never fails the caller's request.
package audit

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/avishkar-academy/vault/app/models"
	"github.com/avishkar-academy/vault/app/repository"
)

// Entry is one audit event.
type Entry struct {
	Action      string
	ActorID     string
	TargetTable string
	TargetID    string
	IPAddress   string
	Details     map[string]any
}

// Trail records entries.
type Trail struct {
	repo repository.AuditRepository
}

// NewTrail returns a Trail. A nil repository turns recording into logging only.
func NewTrail(repo repository.AuditRepository) *Trail {
	return &Trail{repo: repo}
}

func (t *Trail) Record(ctx context.Context, e Entry) {
	if t == nil || t.repo == nil {
		log.Infof("[Audit] %s actor=%s target=%s/%s", e.Action, e.ActorID, e.TargetTable, e.TargetID)
		return
	}
	row := &models.AuditLog{
		Action:      e.Action,
		ActorID:     e.ActorID,
		TargetTable: e.TargetTable,
		TargetID:    e.TargetID,
		IPAddress:   e.IPAddress,
		Details:     models.NewJSON(e.Details),
	}
	if err := t.repo.Record(context.WithoutCancel(ctx), row); err != nil {
		log.Errorf("[Audit] failed to record %s for %s/%s: %v", e.Action, e.TargetTable, e.TargetID, err)
	}
}
