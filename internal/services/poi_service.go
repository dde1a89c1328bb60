package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/khadimfall/magal-events/internal/models"
	apperrors "github.com/khadimfall/magal-events/pkg/errors"
)

// ErrPointNotFound indicates the requested point of interest does not exist.
var ErrPointNotFound = apperrors.New("POINT_NOT_FOUND", "Point of interest not found", http.StatusNotFound)

// CreatePointInput describes the fields accepted when creating a point of interest.
type CreatePointInput struct {
	Name            string
	Type            string
	Address         string
	Description     string
	EmergencyNumber string
	ImageURL        string
}

// UpdatePointInput enumerates mutable point-of-interest attributes.
type UpdatePointInput struct {
	Name            *string
	Type            *string
	Address         *string
	Description     *string
	EmergencyNumber *string
	ImageURL        *string
}

// PointOfInterestService manages the point-of-interest catalog.
type PointOfInterestService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewPointOfInterestService constructs a PointOfInterestService instance.
func NewPointOfInterestService(db *gorm.DB, auditService *AuditService) (*PointOfInterestService, error) {
	if db == nil {
		return nil, errors.New("point service: db is required")
	}
	return &PointOfInterestService{db: db, auditService: auditService}, nil
}

// Create persists a new point of interest after validating its type.
func (s *PointOfInterestService) Create(ctx context.Context, actorID string, input CreatePointInput) (*models.PointOfInterest, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if strings.TrimSpace(input.Address) == "" {
		return nil, apperrors.NewBadRequest("address is required")
	}
	poiType := strings.ToLower(strings.TrimSpace(input.Type))
	if !models.IsValidPOIType(poiType) {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("type must be one of: %s", strings.Join(models.POITypes, ", ")))
	}

	point := &models.PointOfInterest{
		Name:            strings.TrimSpace(input.Name),
		Type:            poiType,
		Address:         strings.TrimSpace(input.Address),
		Description:     strings.TrimSpace(input.Description),
		EmergencyNumber: strings.TrimSpace(input.EmergencyNumber),
		ImageURL:        strings.TrimSpace(input.ImageURL),
	}

	if err := s.db.WithContext(ctx).Create(point).Error; err != nil {
		return nil, fmt.Errorf("point service: create point: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "point.create",
		Resource: point.ID,
		Result:   "success",
		Metadata: map[string]any{"name": point.Name, "type": point.Type},
	})

	return point, nil
}

// Update applies partial changes to an existing point of interest.
func (s *PointOfInterestService) Update(ctx context.Context, actorID, id string, input UpdatePointInput) (*models.PointOfInterest, error) {
	ctx = ensureContext(ctx)

	var point models.PointOfInterest
	err := s.db.WithContext(ctx).First(&point, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("point service: load point: %w", err)
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			updates["name"] = name
		}
	}
	if input.Type != nil {
		poiType := strings.ToLower(strings.TrimSpace(*input.Type))
		if !models.IsValidPOIType(poiType) {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("type must be one of: %s", strings.Join(models.POITypes, ", ")))
		}
		updates["type"] = poiType
	}
	if input.Address != nil {
		if address := strings.TrimSpace(*input.Address); address != "" {
			updates["address"] = address
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.EmergencyNumber != nil {
		updates["emergency_number"] = strings.TrimSpace(*input.EmergencyNumber)
	}
	if input.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*input.ImageURL)
	}

	if len(updates) == 0 {
		return &point, nil
	}

	if err := s.db.WithContext(ctx).Model(&point).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("point service: update point: %w", err)
	}

	if err := s.db.WithContext(ctx).First(&point, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("point service: reload point: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "point.update",
		Resource: point.ID,
		Result:   "success",
		Metadata: map[string]any{"fields": updateKeys(updates)},
	})

	return &point, nil
}

// Delete removes a point of interest along with any favorites referencing it.
func (s *PointOfInterestService) Delete(ctx context.Context, actorID, id string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var point models.PointOfInterest
		err := tx.First(&point, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPointNotFound
		}
		if err != nil {
			return fmt.Errorf("point service: load point: %w", err)
		}

		if err := tx.Where("point_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return fmt.Errorf("point service: delete favorites: %w", err)
		}
		if err := tx.Delete(&point).Error; err != nil {
			return fmt.Errorf("point service: delete point: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "point.delete",
		Resource: id,
		Result:   "success",
	})

	return nil
}

// Get loads a single point of interest by identifier.
func (s *PointOfInterestService) Get(ctx context.Context, id string) (*models.PointOfInterest, error) {
	ctx = ensureContext(ctx)

	var point models.PointOfInterest
	err := s.db.WithContext(ctx).First(&point, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("point service: get point: %w", err)
	}
	return &point, nil
}

// List returns points of interest ordered by name, optionally filtered by type.
func (s *PointOfInterestService) List(ctx context.Context, typeFilter string) ([]models.PointOfInterest, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.PointOfInterest{})
	if t := strings.ToLower(strings.TrimSpace(typeFilter)); t != "" {
		if !models.IsValidPOIType(t) {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("type must be one of: %s", strings.Join(models.POITypes, ", ")))
		}
		query = query.Where("type = ?", t)
	}

	var points []models.PointOfInterest
	if err := query.Order("name ASC").Find(&points).Error; err != nil {
		return nil, fmt.Errorf("point service: list points: %w", err)
	}
	return points, nil
}
