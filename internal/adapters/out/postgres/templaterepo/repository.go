package templaterepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"orderflow/internal/adapters/out/postgres/pgerr"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTemplateRepository implements ports.TemplateRepository using GORM.
type GormTemplateRepository struct {
	db *gorm.DB
}

func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

func (r *GormTemplateRepository) Get(ctx context.Context, tenantID kernel.UUID, ref workflow.Ref) (workflow.Template, error) {
	var dto TemplateDTO
	err := r.db.WithContext(ctx).
		First(&dto, "id = ? AND tenant_id = ? AND version = ?", ref.TemplateID.Bytes(), tenantID.Bytes(), ref.Version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workflow.Template{}, errs.NewObjectNotFoundError("template", ref.String())
	}
	if err != nil {
		return workflow.Template{}, err
	}
	return templateToDomain(dto)
}

func (r *GormTemplateRepository) GetActive(ctx context.Context, tenantID kernel.UUID) (workflow.Ref, error) {
	var dto ActiveTemplateDTO
	err := r.db.WithContext(ctx).First(&dto, "tenant_id = ?", tenantID.Bytes()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workflow.Ref{}, errs.NewObjectNotFoundError("active template", tenantID.String())
	}
	if err != nil {
		return workflow.Ref{}, err
	}

	id, err := kernel.UUIDFromBytes(dto.TemplateID[:])
	if err != nil {
		return workflow.Ref{}, err
	}
	return workflow.Ref{TemplateID: id, Version: dto.Version}, nil
}

func (r *GormTemplateRepository) LatestVersion(ctx context.Context, tenantID kernel.UUID, code string) (int, error) {
	var latest *int
	err := r.db.WithContext(ctx).
		Model(&TemplateDTO{}).
		Where("tenant_id = ? AND code = ?", tenantID.Bytes(), code).
		Select("MAX(version)").
		Scan(&latest).Error
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return 0, nil
	}
	return *latest, nil
}

// Publish inserts the version and moves the tenant's active pointer in one
// transaction. Re-publishing an existing (code, version) is rejected.
func (r *GormTemplateRepository) Publish(ctx context.Context, tpl workflow.Template) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	dto, err := templateFromDomain(tpl)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dto).Error; err != nil {
			if pgerr.IsUniqueViolation(err) {
				return errs.NewVersionIsInvalidError("template version",
					fmt.Errorf("%s v%d is already published", tpl.Code(), tpl.Version()))
			}
			return err
		}

		active := ActiveTemplateDTO{
			TenantID:   dto.TenantID,
			TemplateID: dto.ID,
			Version:    dto.Version,
			UpdatedAt:  time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"template_id", "version", "updated_at"}),
		}).Create(&active).Error
	})
}

func (r *GormTemplateRepository) ListAutoAdvancing(ctx context.Context) ([]workflow.Template, error) {
	var dtos []TemplateDTO
	if err := r.db.WithContext(ctx).Where("auto_advancing = ?", true).Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]workflow.Template, 0, len(dtos))
	for _, dto := range dtos {
		tpl, err := templateToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, nil
}

// GormContractRepository implements ports.ContractRepository using GORM.
type GormContractRepository struct {
	db *gorm.DB
}

func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

func (r *GormContractRepository) Get(ctx context.Context, tenantID kernel.UUID, key screen.Key) (screen.Contract, error) {
	var dto ContractDTO
	err := r.db.WithContext(ctx).First(&dto, "tenant_id = ? AND screen_key = ?", tenantID.Bytes(), key.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return screen.Contract{}, errs.NewObjectNotFoundError("screen contract", key.String())
	}
	if err != nil {
		return screen.Contract{}, err
	}
	return contractToDomain(dto), nil
}

// Save upserts the tenant's override for the contract's screen.
func (r *GormContractRepository) Save(ctx context.Context, tenantID kernel.UUID, contract screen.Contract) error {
	if contract.Key == "" {
		return errs.NewValueIsRequiredError("screen key")
	}
	dto := contractFromDomain(tenantID, contract)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "screen_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"required_permissions", "pre_conditions", "fixed_target"}),
	}).Create(&dto).Error
}

func encodeRule(r screen.Rule) string {
	if len(r.AppliesTo) == 0 {
		return r.Code
	}
	targets := make([]string, 0, len(r.AppliesTo))
	for _, s := range r.AppliesTo {
		targets = append(targets, s.String())
	}
	return r.Code + ":" + strings.Join(targets, "|")
}

func decodeRule(raw string) screen.Rule {
	code, targets, found := strings.Cut(raw, ":")
	rule := screen.Rule{Code: code}
	if !found || targets == "" {
		return rule
	}
	for _, t := range strings.Split(targets, "|") {
		rule.AppliesTo = append(rule.AppliesTo, workflow.StatusCode(t))
	}
	return rule
}
