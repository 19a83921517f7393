// Package templaterepo persists workflow template versions, the per-tenant
// active template pointer and tenant screen contract overrides.
package templaterepo

import (
	"encoding/json"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// TemplateDTO is one immutable template version. The graph is stored as a
// single JSON definition; versions are never updated in place.
type TemplateDTO struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_templates_tenant_code_version,priority:1"`
	Code          string         `gorm:"size:128;not null;uniqueIndex:idx_templates_tenant_code_version,priority:2"`
	Version       int            `gorm:"not null;uniqueIndex:idx_templates_tenant_code_version,priority:3"`
	Definition    datatypes.JSON `gorm:"type:jsonb;not null"`
	AutoAdvancing bool           `gorm:"not null;default:false;index"`
	CreatedAt     time.Time      `gorm:"not null"`
}

func (TemplateDTO) TableName() string {
	return "workflow_templates"
}

// ActiveTemplateDTO points a tenant at its active template version.
type ActiveTemplateDTO struct {
	TenantID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	TemplateID uuid.UUID `gorm:"type:uuid;not null"`
	Version    int       `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (ActiveTemplateDTO) TableName() string {
	return "active_templates"
}

// ContractDTO is a tenant override of a built-in screen contract.
// Pre-condition rules are stored as "code" or "code:STATUS|STATUS".
type ContractDTO struct {
	TenantID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ScreenKey           string         `gorm:"size:64;primaryKey"`
	RequiredPermissions pq.StringArray `gorm:"type:text[]"`
	PreConditions       pq.StringArray `gorm:"type:text[]"`
	FixedTarget         string         `gorm:"size:64"`
}

func (ContractDTO) TableName() string {
	return "screen_contracts"
}

type definitionDTO struct {
	Stages      []stageDTO      `json:"stages"`
	Transitions []transitionDTO `json:"transitions"`
}

type stageDTO struct {
	Code     string `json:"code"`
	Phase    string `json:"phase"`
	Sequence int    `json:"sequence"`
	Terminal bool   `json:"terminal,omitempty"`
}

type transitionDTO struct {
	From            string   `json:"from"`
	To              string   `json:"to"`
	AllowManual     bool     `json:"allowManual"`
	AutoWhenDone    bool     `json:"autoWhenDone,omitempty"`
	RequiresScanOK  bool     `json:"requiresScanOk,omitempty"`
	RequiresPOD     bool     `json:"requiresPod,omitempty"`
	RequiresInvoice bool     `json:"requiresInvoice,omitempty"`
	PreConditions   []string `json:"preConditions,omitempty"`
	Effects         []string `json:"effects,omitempty"`
}

func templateFromDomain(tpl workflow.Template) (TemplateDTO, error) {
	def := definitionDTO{}
	for _, s := range tpl.Stages() {
		def.Stages = append(def.Stages, stageDTO{
			Code:     s.Code.String(),
			Phase:    string(s.Phase),
			Sequence: s.Sequence,
			Terminal: s.Terminal,
		})
	}
	for _, tr := range tpl.Transitions() {
		effects := make([]string, 0, len(tr.Effects))
		for _, e := range tr.Effects {
			effects = append(effects, string(e))
		}
		def.Transitions = append(def.Transitions, transitionDTO{
			From:            tr.From.String(),
			To:              tr.To.String(),
			AllowManual:     tr.AllowManual,
			AutoWhenDone:    tr.AutoWhenDone,
			RequiresScanOK:  tr.RequiresScanOK,
			RequiresPOD:     tr.RequiresPOD,
			RequiresInvoice: tr.RequiresInvoice,
			PreConditions:   tr.PreConditions,
			Effects:         effects,
		})
	}

	raw, err := json.Marshal(def)
	if err != nil {
		return TemplateDTO{}, fmt.Errorf("encode template definition: %w", err)
	}

	return TemplateDTO{
		ID:            tpl.ID().Bytes(),
		TenantID:      tpl.TenantID().Bytes(),
		Code:          tpl.Code(),
		Version:       tpl.Version(),
		Definition:    datatypes.JSON(raw),
		AutoAdvancing: len(tpl.AutoTransitions()) > 0,
		CreatedAt:     tpl.CreatedAt(),
	}, nil
}

// templateToDomain goes through workflow.NewTemplate, so a stored graph is
// validated again on the way in.
func templateToDomain(dto TemplateDTO) (workflow.Template, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return workflow.Template{}, err
	}
	tenantID, err := kernel.UUIDFromBytes(dto.TenantID[:])
	if err != nil {
		return workflow.Template{}, err
	}

	var def definitionDTO
	if err := json.Unmarshal(dto.Definition, &def); err != nil {
		return workflow.Template{}, fmt.Errorf("decode template %s v%d: %w", dto.Code, dto.Version, err)
	}

	stages := make([]workflow.Stage, 0, len(def.Stages))
	for _, s := range def.Stages {
		stages = append(stages, workflow.Stage{
			Code:     workflow.StatusCode(s.Code),
			Phase:    workflow.Phase(s.Phase),
			Sequence: s.Sequence,
			Terminal: s.Terminal,
		})
	}
	transitions := make([]workflow.Transition, 0, len(def.Transitions))
	for _, tr := range def.Transitions {
		effects := make([]workflow.Effect, 0, len(tr.Effects))
		for _, e := range tr.Effects {
			effects = append(effects, workflow.Effect(e))
		}
		transitions = append(transitions, workflow.Transition{
			From:            workflow.StatusCode(tr.From),
			To:              workflow.StatusCode(tr.To),
			AllowManual:     tr.AllowManual,
			AutoWhenDone:    tr.AutoWhenDone,
			RequiresScanOK:  tr.RequiresScanOK,
			RequiresPOD:     tr.RequiresPOD,
			RequiresInvoice: tr.RequiresInvoice,
			PreConditions:   tr.PreConditions,
			Effects:         effects,
		})
	}

	return workflow.NewTemplate(id, tenantID, dto.Code, dto.Version, stages, transitions, dto.CreatedAt)
}

func contractFromDomain(tenantID kernel.UUID, c screen.Contract) ContractDTO {
	rules := make(pq.StringArray, 0, len(c.PreConditions))
	for _, r := range c.PreConditions {
		rules = append(rules, encodeRule(r))
	}
	return ContractDTO{
		TenantID:            tenantID.Bytes(),
		ScreenKey:           c.Key.String(),
		RequiredPermissions: pq.StringArray(c.RequiredPermissions),
		PreConditions:       rules,
		FixedTarget:         c.FixedTarget.String(),
	}
}

func contractToDomain(dto ContractDTO) screen.Contract {
	rules := make([]screen.Rule, 0, len(dto.PreConditions))
	for _, raw := range dto.PreConditions {
		rules = append(rules, decodeRule(raw))
	}
	return screen.Contract{
		Key:                 screen.Key(dto.ScreenKey),
		RequiredPermissions: []string(dto.RequiredPermissions),
		PreConditions:       rules,
		FixedTarget:         workflow.StatusCode(dto.FixedTarget),
	}
}
