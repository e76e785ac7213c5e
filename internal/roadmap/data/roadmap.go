package data

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/database"
	"github.com/lk2023060901/microlearn-backend/internal/research"
	"github.com/lk2023060901/microlearn-backend/internal/roadmap/biz"
	"gorm.io/gorm/clause"
)

// scanJSON 兼容 postgres 返回 []byte 与 sqlite 返回 string
func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}

// StepsJSON 学习步骤 JSONB 列
type StepsJSON []research.Step

func (j *StepsJSON) Scan(value interface{}) error {
	*j = StepsJSON{}
	return scanJSON(value, (*[]research.Step)(j))
}

func (j StepsJSON) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]research.Step(j))
	return string(b), err
}

// MetadataJSON 路线图元数据 JSONB 列
type MetadataJSON research.RoadmapMetadata

func (j *MetadataJSON) Scan(value interface{}) error {
	*j = MetadataJSON{}
	return scanJSON(value, (*research.RoadmapMetadata)(j))
}

func (j MetadataJSON) Value() (driver.Value, error) {
	b, err := json.Marshal(research.RoadmapMetadata(j))
	return string(b), err
}

// RoadmapPO 路线图数据库模型，每个用户最多一条
type RoadmapPO struct {
	ID            string       `gorm:"type:uuid;primarykey"`
	UserID        string       `gorm:"size:64;not null;uniqueIndex:idx_roadmaps_user_id"`
	Topic         string       `gorm:"size:255;not null;default:''"`
	GeneratedWith string       `gorm:"size:32;not null"`
	Steps         StepsJSON    `gorm:"type:jsonb;not null"`
	Metadata      MetadataJSON `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time    `gorm:"not null"`
	UpdatedAt     time.Time    `gorm:"not null"`
}

func (RoadmapPO) TableName() string {
	return "roadmaps"
}

// RoadmapRepo 路线图仓储实现
type RoadmapRepo struct {
	db *database.DB
}

// NewRoadmapRepo 创建路线图仓储
func NewRoadmapRepo(db *database.DB) *RoadmapRepo {
	return &RoadmapRepo{db: db}
}

var _ biz.RoadmapRepo = (*RoadmapRepo)(nil)

// Upsert 以 user_id 为冲突键写入，重新生成时整体替换
func (r *RoadmapRepo) Upsert(ctx context.Context, roadmap *research.Roadmap) (*research.Roadmap, error) {
	now := time.Now().UTC()
	po := &RoadmapPO{
		ID:            uuid.New().String(),
		UserID:        roadmap.UserID,
		Topic:         roadmap.Metadata.Topic,
		GeneratedWith: string(roadmap.Metadata.GeneratedWith),
		Steps:         StepsJSON(roadmap.Steps),
		Metadata:      MetadataJSON(roadmap.Metadata),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"topic", "generated_with", "steps", "metadata", "updated_at"}),
	}).Create(po).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert roadmap: %w", err)
	}

	return r.GetByUserID(ctx, roadmap.UserID)
}

// GetByUserID 获取用户的路线图
func (r *RoadmapRepo) GetByUserID(ctx context.Context, userID string) (*research.Roadmap, error) {
	var po RoadmapPO
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&po).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrRoadmapNotFound
		}
		return nil, err
	}
	return toRoadmap(&po), nil
}

func toRoadmap(po *RoadmapPO) *research.Roadmap {
	steps := []research.Step(po.Steps)
	if steps == nil {
		steps = []research.Step{}
	}
	meta := research.RoadmapMetadata(po.Metadata)
	if meta.Sources == nil {
		meta.Sources = []research.RankedResource{}
	}
	return &research.Roadmap{
		ID:        po.ID,
		UserID:    po.UserID,
		Steps:     steps,
		Metadata:  meta,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}
}
