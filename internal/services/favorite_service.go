package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/khadimfall/magal-events/internal/models"
	apperrors "github.com/khadimfall/magal-events/pkg/errors"
)

var (
	// ErrAlreadyFavorited indicates the user already favorited the point.
	ErrAlreadyFavorited = apperrors.NewConflict("ALREADY_FAVORITED", "Point of interest is already favorited")
	// ErrNotFavorited indicates there is no favorite to remove.
	ErrNotFavorited = apperrors.New("NOT_FAVORITED", "Point of interest is not favorited", http.StatusBadRequest)
)

// FavoritePoint is a point of interest joined with the time it was favorited.
type FavoritePoint struct {
	Point   models.PointOfInterest `json:"point"`
	AddedAt time.Time              `json:"added_at"`
}

// FavoriteService maintains per-user point-of-interest bookmarks.
type FavoriteService struct {
	db      *gorm.DB
	timeNow func() time.Time
}

// NewFavoriteService constructs a FavoriteService instance.
func NewFavoriteService(db *gorm.DB) (*FavoriteService, error) {
	if db == nil {
		return nil, errors.New("favorite service: db is required")
	}
	return &FavoriteService{db: db, timeNow: time.Now}, nil
}

// Add bookmarks the point for the user. The point must exist and not
// already be favorited by the same user.
func (s *FavoriteService) Add(ctx context.Context, userID, pointID string) (*models.Favorite, error) {
	ctx = ensureContext(ctx)

	var point models.PointOfInterest
	err := s.db.WithContext(ctx).First(&point, "id = ?", pointID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("favorite service: load point: %w", err)
	}

	favorite := models.Favorite{
		UserID:  userID,
		PointID: pointID,
		AddedAt: s.timeNow(),
	}
	if err := s.db.WithContext(ctx).Create(&favorite).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAlreadyFavorited
		}
		return nil, fmt.Errorf("favorite service: create favorite: %w", err)
	}

	return &favorite, nil
}

// Remove deletes the user's bookmark for the point. Rows are hard-deleted so
// a later Add for the same pair succeeds again.
func (s *FavoriteService) Remove(ctx context.Context, userID, pointID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND point_id = ?", userID, pointID).
		Delete(&models.Favorite{})
	if result.Error != nil {
		return fmt.Errorf("favorite service: delete favorite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFavorited
	}
	return nil
}

// ListForUser returns the user's favorited points ordered by when they were
// added, optionally filtered by point type.
func (s *FavoriteService) ListForUser(ctx context.Context, userID, typeFilter string) ([]FavoritePoint, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Preload("Point").
		Joins("JOIN point_of_interests ON point_of_interests.id = favorites.point_id").
		Where("favorites.user_id = ?", userID)

	if t := strings.ToLower(strings.TrimSpace(typeFilter)); t != "" {
		if !models.IsValidPOIType(t) {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("type must be one of: %s", strings.Join(models.POITypes, ", ")))
		}
		query = query.Where("point_of_interests.type = ?", t)
	}

	var favorites []models.Favorite
	if err := query.Order("favorites.added_at DESC").Find(&favorites).Error; err != nil {
		return nil, fmt.Errorf("favorite service: list favorites: %w", err)
	}

	items := make([]FavoritePoint, 0, len(favorites))
	for _, favorite := range favorites {
		if favorite.Point == nil {
			continue
		}
		items = append(items, FavoritePoint{
			Point:   *favorite.Point,
			AddedAt: favorite.AddedAt,
		})
	}
	return items, nil
}
