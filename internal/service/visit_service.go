package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"poolcare/api/internal/config"
	"poolcare/api/internal/ids"
	"poolcare/api/internal/models"
	"poolcare/api/internal/repository"
	"poolcare/api/internal/storage"
)

var (
	ErrInvalidTransition = errors.New("invalid visit transition")
	ErrUnsupportedPhoto  = errors.New("unsupported photo type")
)

type VisitService struct {
	visits    *repository.VisitRepository
	pools     *repository.PoolRepository
	inventory *repository.InventoryRepository
	store     *storage.ObjectStore
	cfg       *config.AppConfig
	log       zerolog.Logger
}

func NewVisitService(
	visits *repository.VisitRepository,
	pools *repository.PoolRepository,
	inventory *repository.InventoryRepository,
	store *storage.ObjectStore,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *VisitService {
	return &VisitService{
		visits:    visits,
		pools:     pools,
		inventory: inventory,
		store:     store,
		cfg:       cfg,
		log:       log,
	}
}

type ScheduleVisitInput struct {
	CompanyID    string
	PoolID       string
	TechnicianID string
	ScheduledFor time.Time
	Notes        string
}

func (s *VisitService) Schedule(ctx context.Context, input ScheduleVisitInput) (models.ServiceVisit, error) {
	if _, err := s.pools.GetByID(ctx, input.CompanyID, input.PoolID); err != nil {
		return models.ServiceVisit{}, err
	}

	visit := models.ServiceVisit{
		ID:           ids.New(),
		CompanyID:    input.CompanyID,
		PoolID:       input.PoolID,
		TechnicianID: input.TechnicianID,
		ScheduledFor: input.ScheduledFor,
		Status:       models.VisitStatusScheduled,
		Notes:        input.Notes,
	}
	if err := s.visits.Create(ctx, visit); err != nil {
		return models.ServiceVisit{}, err
	}
	return visit, nil
}

func (s *VisitService) Start(ctx context.Context, companyID string, visitID string, technicianID string) (models.ServiceVisit, error) {
	visit, err := s.visits.GetByID(ctx, companyID, visitID)
	if err != nil {
		return models.ServiceVisit{}, err
	}
	if visit.Status != models.VisitStatusScheduled {
		return models.ServiceVisit{}, ErrInvalidTransition
	}

	now := time.Now()
	visit.Status = models.VisitStatusInProgress
	visit.StartedAt = &now
	if technicianID != "" {
		visit.TechnicianID = technicianID
	}

	if err := s.visits.Update(ctx, visit); err != nil {
		return models.ServiceVisit{}, err
	}
	return visit, nil
}

type ChemicalUseInput struct {
	ItemID   string
	Quantity float64
}

type CompleteVisitInput struct {
	Readings  models.ChemReadings
	Notes     string
	Chemicals []ChemicalUseInput
}

// Complete closes out a visit: records readings, logs chemicals used, and
// decrements each chemical from the company's inventory.
func (s *VisitService) Complete(ctx context.Context, companyID string, visitID string, input CompleteVisitInput) (models.ServiceVisit, error) {
	visit, err := s.visits.GetByID(ctx, companyID, visitID)
	if err != nil {
		return models.ServiceVisit{}, err
	}
	if visit.Status != models.VisitStatusScheduled && visit.Status != models.VisitStatusInProgress {
		return models.ServiceVisit{}, ErrInvalidTransition
	}

	for _, chem := range input.Chemicals {
		if chem.Quantity <= 0 {
			return models.ServiceVisit{}, fmt.Errorf("chemical quantity must be positive")
		}
		if err := s.inventory.Adjust(ctx, companyID, chem.ItemID, -chem.Quantity); err != nil {
			return models.ServiceVisit{}, err
		}
		if err := s.visits.AddChemicalUsage(ctx, models.ChemicalUsage{
			VisitID:  visit.ID,
			ItemID:   chem.ItemID,
			Quantity: chem.Quantity,
		}); err != nil {
			return models.ServiceVisit{}, err
		}
	}

	now := time.Now()
	visit.Status = models.VisitStatusCompleted
	visit.CompletedAt = &now
	visit.Readings = input.Readings
	if input.Notes != "" {
		visit.Notes = input.Notes
	}

	if err := s.visits.Update(ctx, visit); err != nil {
		return models.ServiceVisit{}, err
	}
	return visit, nil
}

func (s *VisitService) Skip(ctx context.Context, companyID string, visitID string, reason string) (models.ServiceVisit, error) {
	visit, err := s.visits.GetByID(ctx, companyID, visitID)
	if err != nil {
		return models.ServiceVisit{}, err
	}
	if visit.Status != models.VisitStatusScheduled {
		return models.ServiceVisit{}, ErrInvalidTransition
	}

	visit.Status = models.VisitStatusSkipped
	if reason != "" {
		visit.Notes = reason
	}

	if err := s.visits.Update(ctx, visit); err != nil {
		return models.ServiceVisit{}, err
	}
	return visit, nil
}

// AttachPhoto sniffs the upload, stores it under a company-scoped key, and
// records the key on the visit.
func (s *VisitService) AttachPhoto(ctx context.Context, companyID string, visitID string, file io.Reader, size int64) (string, error) {
	visit, err := s.visits.GetByID(ctx, companyID, visitID)
	if err != nil {
		return "", err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read head: %w", err)
	}
	head = head[:n]

	var ext string
	contentType := http.DetectContentType(head)
	switch contentType {
	case "image/jpeg":
		ext = "jpg"
	case "image/png":
		ext = "png"
	case "image/webp":
		ext = "webp"
	default:
		return "", ErrUnsupportedPhoto
	}

	key := fmt.Sprintf("%s/%s/%s.%s", companyID, visitID, ids.New(), ext)
	body := io.MultiReader(bytes.NewReader(head), file)
	if err := s.store.PutPhoto(ctx, key, body, size, contentType); err != nil {
		return "", err
	}

	visit.PhotoKeys = append(visit.PhotoKeys, key)
	if err := s.visits.Update(ctx, visit); err != nil {
		return "", err
	}
	return key, nil
}

func (s *VisitService) PhotoURL(ctx context.Context, companyID string, visitID string, key string) (string, error) {
	visit, err := s.visits.GetByID(ctx, companyID, visitID)
	if err != nil {
		return "", err
	}
	for _, owned := range visit.PhotoKeys {
		if owned == key {
			return s.store.PresignPhotoURL(ctx, key, 15*time.Minute)
		}
	}
	return "", repository.ErrVisitNotFound
}

// GenerateForDate creates the day's scheduled visits from each active
// pool's recurring service weekday. Safe to re-run: pools with a visit
// already on the date are skipped.
func (s *VisitService) GenerateForDate(ctx context.Context, day time.Time) (int, error) {
	pools, err := s.pools.ListActiveByWeekday(ctx, day.Weekday())
	if err != nil {
		return 0, err
	}

	created := 0
	for _, pool := range pools {
		exists, err := s.visits.ExistsForPoolOnDate(ctx, pool.ID, day)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		visit := models.ServiceVisit{
			ID:           ids.New(),
			CompanyID:    pool.CompanyID,
			PoolID:       pool.ID,
			ScheduledFor: time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, day.Location()),
			Status:       models.VisitStatusScheduled,
		}
		if err := s.visits.Create(ctx, visit); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
