package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/procura/internal/clock"
	volumedomain "github.com/smallbiznis/procura/internal/volume/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p ServiceParam) volumedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("volume.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func validatePeriod(year, month int) error {
	if year < 2000 || year > 2100 || month < 1 || month > 12 {
		return volumedomain.ErrInvalidPeriod
	}
	return nil
}

func (s *Service) validateUpsert(req volumedomain.UpsertVolumeRequest) error {
	if req.ProductID == 0 {
		return volumedomain.ErrVolumeNotFound
	}
	if err := validatePeriod(req.Year, req.Month); err != nil {
		return err
	}
	if req.Units < 0 {
		return volumedomain.ErrInvalidUnits
	}
	return nil
}

func (s *Service) UpsertForecast(ctx context.Context, req volumedomain.UpsertVolumeRequest) (*volumedomain.Forecast, error) {
	if err := s.validateUpsert(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var record volumedomain.Forecast
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(&volumedomain.Forecast{
			ProductID: req.ProductID, Year: req.Year, Month: req.Month,
		}).First(&record).Error
		switch {
		case err == nil:
			record.Units = req.Units
			record.UpdatedAt = now
			return tx.Save(&record).Error
		case err == gorm.ErrRecordNotFound:
			record = volumedomain.Forecast{
				ID:        s.genID.Generate(),
				ProductID: req.ProductID,
				Year:      req.Year,
				Month:     req.Month,
				Units:     req.Units,
				CreatedAt: now,
				UpdatedAt: now,
			}
			return tx.Create(&record).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) ListForecasts(ctx context.Context, productID snowflake.ID) ([]volumedomain.Forecast, error) {
	var records []volumedomain.Forecast
	err := s.db.WithContext(ctx).
		Where(&volumedomain.Forecast{ProductID: productID}).
		Order("year, month").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) DeleteForecast(ctx context.Context, productID snowflake.ID, year, month int) error {
	if err := validatePeriod(year, month); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Exec(
		`DELETE FROM forecasts WHERE product_id = ? AND year = ? AND month = ?`,
		productID, year, month,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return volumedomain.ErrVolumeNotFound
	}
	return nil
}

func (s *Service) UpsertActual(ctx context.Context, req volumedomain.UpsertVolumeRequest) (*volumedomain.Actual, error) {
	if err := s.validateUpsert(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var record volumedomain.Actual
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(&volumedomain.Actual{
			ProductID: req.ProductID, Year: req.Year, Month: req.Month,
		}).First(&record).Error
		switch {
		case err == nil:
			record.Units = req.Units
			record.UpdatedAt = now
			return tx.Save(&record).Error
		case err == gorm.ErrRecordNotFound:
			record = volumedomain.Actual{
				ID:        s.genID.Generate(),
				ProductID: req.ProductID,
				Year:      req.Year,
				Month:     req.Month,
				Units:     req.Units,
				CreatedAt: now,
				UpdatedAt: now,
			}
			return tx.Create(&record).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) ListActuals(ctx context.Context, productID snowflake.ID) ([]volumedomain.Actual, error) {
	var records []volumedomain.Actual
	err := s.db.WithContext(ctx).
		Where(&volumedomain.Actual{ProductID: productID}).
		Order("year, month").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) DeleteActual(ctx context.Context, productID snowflake.ID, year, month int) error {
	if err := validatePeriod(year, month); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Exec(
		`DELETE FROM actuals WHERE product_id = ? AND year = ? AND month = ?`,
		productID, year, month,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return volumedomain.ErrVolumeNotFound
	}
	return nil
}

func (s *Service) QuantitiesForMonth(ctx context.Context, basis volumedomain.Basis, year, month int) (map[snowflake.ID]int64, error) {
	if !basis.Valid() {
		return nil, volumedomain.ErrInvalidBasis
	}
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}

	table := "forecasts"
	if basis == volumedomain.BasisActual {
		table = "actuals"
	}
	var rows []struct {
		ProductID snowflake.ID
		Units     int64
	}
	err := s.db.WithContext(ctx).
		Raw(`SELECT product_id, units FROM `+table+` WHERE year = ? AND month = ?`, year, month).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[snowflake.ID]int64, len(rows))
	for _, row := range rows {
		result[row.ProductID] = row.Units
	}
	return result, nil
}
