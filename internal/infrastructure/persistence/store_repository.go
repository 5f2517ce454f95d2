package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/domain/store"
	"github.com/comercio/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStoreRepository implements store.Repository using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// FindByID finds a store by ID, members included
func (r *GormStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Store, error) {
	var model models.StoreModel
	if err := r.db.WithContext(ctx).
		Preload("Members").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a store by its slug
func (r *GormStoreRepository) FindBySlug(ctx context.Context, slug string) (*store.Store, error) {
	var model models.StoreModel
	if err := r.db.WithContext(ctx).
		Preload("Members").
		First(&model, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForUser lists the stores a user is a member of
func (r *GormStoreRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]store.Store, error) {
	var storeModels []models.StoreModel

	sortField := validateSortField(filter.OrderBy, storeSortFields, "created_at")
	sortOrder := validateSortOrder(filter.OrderDir)

	query := r.db.WithContext(ctx).
		Preload("Members").
		Joins("JOIN store_members ON store_members.store_id = stores.id").
		Where("store_members.user_id = ?", userID).
		Order(fmt.Sprintf("stores.%s %s", sortField, sortOrder)).
		Limit(filter.Limit()).
		Offset(filter.Offset())
	if filter.Search != "" {
		query = query.Where("stores.name ILIKE ?", "%"+filter.Search+"%")
	}

	if err := query.Find(&storeModels).Error; err != nil {
		return nil, translateError(err)
	}

	stores := make([]store.Store, len(storeModels))
	for i, model := range storeModels {
		stores[i] = *model.ToDomain()
	}
	return stores, nil
}

// Save creates or updates a store and replaces its member rows.
// Member changes are rare, so upserting the full set in one
// transaction keeps the aggregate consistent without diffing.
func (r *GormStoreRepository) Save(ctx context.Context, s *store.Store) error {
	model := models.StoreModelFromDomain(s)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		members := model.Members
		model.Members = nil

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(model).Error; err != nil {
			return translateError(err)
		}

		for i := range members {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"role"}),
			}).Create(&members[i]).Error; err != nil {
				return translateError(err)
			}
		}
		return nil
	})
}
