package deck

import (
	"errors"

	"github.com/insight-deck/core/internal/models"
	"github.com/insight-deck/core/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	// DefaultPageSize is sized so one physical deck fits a single page.
	DefaultPageSize = 24
	MaxPageSize     = 100
)

// ListQuery narrows and pages the card listing.
type ListQuery struct {
	Page     int
	Size     int
	Category string
}

func (q ListQuery) normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	return q
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// ListCards returns one page of cards ordered by sort, optionally filtered by
// category.
func (s *Service) ListCards(q ListQuery) ([]models.CardModel, response.Pagination, error) {
	q = q.normalized()

	tx := s.db.Model(&models.CardModel{}).Order("sort ASC, created_at ASC")
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, response.Pagination{}, err
	}

	var items []models.CardModel
	if err := tx.Offset((q.Page - 1) * q.Size).Limit(q.Size).Find(&items).Error; err != nil {
		return nil, response.Pagination{}, err
	}

	totalPage := int((total + int64(q.Size) - 1) / int64(q.Size))
	return items, response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}, nil
}

// GetCard looks up a card by id or slug. Returns (nil, nil) when absent.
func (s *Service) GetCard(idOrSlug string) (*models.CardModel, error) {
	var card models.CardModel
	err := s.db.Where("id = ? OR slug = ?", idOrSlug, idOrSlug).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// ListQuestions returns guiding questions, optionally for a single stage.
func (s *Service) ListQuestions(stage string) ([]models.QuestionModel, error) {
	tx := s.db.Order("sort ASC, created_at ASC")
	if stage != "" {
		tx = tx.Where("stage = ?", stage)
	}
	var items []models.QuestionModel
	err := tx.Find(&items).Error
	return items, err
}

// ListStatements returns all closing statements.
func (s *Service) ListStatements() ([]models.StatementModel, error) {
	var items []models.StatementModel
	err := s.db.Order("sort ASC, created_at ASC").Find(&items).Error
	return items, err
}
