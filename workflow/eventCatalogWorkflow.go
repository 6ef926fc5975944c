package workflow

import (
	"context"
	"errors"
	"strings"

	"bitbucket.org/mmdatafocus/kpi_backend/config"
	"bitbucket.org/mmdatafocus/kpi_backend/models"
	"bitbucket.org/mmdatafocus/kpi_backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AdjustmentEventInput is the payload for catalog create/update.
type AdjustmentEventInput struct {
	Name         string `json:"name" validate:"required,max=200"`
	IsHoliday    bool   `json:"is_holiday"`
	UsedInBudget bool   `json:"used_in_budget"`
	IsInternal   bool   `json:"is_internal"`
}

func validateEventInput(input AdjustmentEventInput) error {
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &utils.ValidationError{Fields: utils.ProcessValidationErrors(err)}
		}
		return err
	}
	if strings.TrimSpace(input.Name) == "" {
		return utils.NewFieldValidationError("name", "required")
	}
	return nil
}

// CreateAdjustmentEvent adds a catalog entry at the end of the display order.
func CreateAdjustmentEvent(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, caps models.ActorCapabilities, input AdjustmentEventInput) (*models.AdjustmentEvent, error) {
	if !caps.CanManageEvents {
		return nil, utils.ErrorNotAllowed
	}
	if err := validateEventInput(input); err != nil {
		return nil, err
	}
	chainId, ok := utils.GetChainIdFromContext(ctx)
	if !ok {
		return nil, utils.NewValidationError("missing chain id")
	}

	var maxOrder int
	err := tx.Model(&models.AdjustmentEvent{}).
		Where("chain_id = ?", chainId).
		Select("COALESCE(MAX(display_order), 0)").Scan(&maxOrder).Error
	if err != nil {
		config.LogError(logger, "eventCatalogWorkflow.go", "CreateAdjustmentEvent", "MaxDisplayOrder", chainId, err)
		return nil, err
	}

	event := models.AdjustmentEvent{
		ChainId:      chainId,
		Name:         strings.TrimSpace(input.Name),
		IsHoliday:    input.IsHoliday,
		UsedInBudget: input.UsedInBudget,
		IsInternal:   input.IsInternal,
		DisplayOrder: maxOrder + 1,
	}
	if err := tx.Create(&event).Error; err != nil {
		config.LogError(logger, "eventCatalogWorkflow.go", "CreateAdjustmentEvent", "CreateRow", event, err)
		return nil, err
	}
	return &event, nil
}

// UpdateAdjustmentEvent edits a catalog entry's descriptive fields.
// DisplayOrder is owned by ReorderAdjustmentEvents and not touched here.
func UpdateAdjustmentEvent(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, caps models.ActorCapabilities, eventId int, input AdjustmentEventInput) (*models.AdjustmentEvent, error) {
	if !caps.CanManageEvents {
		return nil, utils.ErrorNotAllowed
	}
	if err := validateEventInput(input); err != nil {
		return nil, err
	}
	chainId, ok := utils.GetChainIdFromContext(ctx)
	if !ok {
		return nil, utils.NewValidationError("missing chain id")
	}

	var event models.AdjustmentEvent
	err := tx.Where("chain_id = ? AND id = ?", chainId, eventId).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("adjustment event", "id=%d", eventId)
	} else if err != nil {
		return nil, err
	}

	event.Name = strings.TrimSpace(input.Name)
	event.IsHoliday = input.IsHoliday
	event.UsedInBudget = input.UsedInBudget
	event.IsInternal = input.IsInternal
	if err := tx.Save(&event).Error; err != nil {
		config.LogError(logger, "eventCatalogWorkflow.go", "UpdateAdjustmentEvent", "SaveRow", event, err)
		return nil, err
	}
	return &event, nil
}

// DeleteAdjustmentEvent removes a catalog entry and all of its occurrences in
// one transaction, then drops the chain's cached aggregations because the
// deleted occurrences may have carried offsets.
func DeleteAdjustmentEvent(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, caps models.ActorCapabilities, eventId int) error {
	if !caps.CanManageEvents {
		return utils.ErrorNotAllowed
	}
	chainId, ok := utils.GetChainIdFromContext(ctx)
	if !ok {
		return utils.NewValidationError("missing chain id")
	}

	lock, err := acquireAdjustmentLock(ctx, logger, chainId, "DeleteAdjustmentEvent")
	if err != nil {
		return err
	}
	defer releaseAdjustmentLock(ctx, lock)

	var event models.AdjustmentEvent
	err = tx.Where("chain_id = ? AND id = ?", chainId, eventId).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NewNotFoundError("adjustment event", "id=%d", eventId)
	} else if err != nil {
		return err
	}

	if err := tx.Where("chain_id = ? AND event_id = ?", chainId, eventId).Delete(&models.EventDate{}).Error; err != nil {
		config.LogError(logger, "eventCatalogWorkflow.go", "DeleteAdjustmentEvent", "DeleteDates", eventId, err)
		return err
	}
	if err := tx.Delete(&models.AdjustmentEvent{}, "id = ?", event.ID).Error; err != nil {
		config.LogError(logger, "eventCatalogWorkflow.go", "DeleteAdjustmentEvent", "DeleteEvent", eventId, err)
		return err
	}

	if err := InvalidatePeriodCache(chainId); err != nil {
		config.LogError(logger, "eventCatalogWorkflow.go", "DeleteAdjustmentEvent", "InvalidatePeriodCache", chainId, err)
	}
	return nil
}

// ReorderAdjustmentEvents rewrites DisplayOrder for the whole catalog from the
// given id sequence. Every id must belong to the chain; ids missing from the
// sequence keep their relative order after the listed ones.
func ReorderAdjustmentEvents(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, caps models.ActorCapabilities, orderedIds []int) error {
	if !caps.CanManageEvents {
		return utils.ErrorNotAllowed
	}
	chainId, ok := utils.GetChainIdFromContext(ctx)
	if !ok {
		return utils.NewValidationError("missing chain id")
	}

	var events []models.AdjustmentEvent
	if err := tx.Where("chain_id = ?", chainId).Order("display_order asc, id asc").Find(&events).Error; err != nil {
		config.LogError(logger, "eventCatalogWorkflow.go", "ReorderAdjustmentEvents", "ListEvents", chainId, err)
		return err
	}

	known := make(map[int]bool, len(events))
	for _, e := range events {
		known[e.ID] = true
	}
	for _, id := range utils.UniqueSlice(orderedIds) {
		if !known[id] {
			return utils.NewNotFoundError("adjustment event", "id=%d", id)
		}
	}

	order := make(map[int]int, len(orderedIds))
	next := 1
	for _, id := range utils.UniqueSlice(orderedIds) {
		order[id] = next
		next++
	}
	for _, e := range events {
		if _, listed := order[e.ID]; !listed {
			order[e.ID] = next
			next++
		}
	}

	for id, position := range order {
		err := tx.Model(&models.AdjustmentEvent{}).
			Where("chain_id = ? AND id = ?", chainId, id).
			Update("display_order", position).Error
		if err != nil {
			config.LogError(logger, "eventCatalogWorkflow.go", "ReorderAdjustmentEvents", "UpdateOrder", id, err)
			return err
		}
	}
	return nil
}

// ListAdjustmentEvents returns the chain's catalog in display order, with
// internal entries filtered out for non-managers.
func ListAdjustmentEvents(ctx context.Context, tx *gorm.DB, caps models.ActorCapabilities) ([]models.AdjustmentEvent, error) {
	chainId, ok := utils.GetChainIdFromContext(ctx)
	if !ok {
		return nil, utils.NewValidationError("missing chain id")
	}
	query := tx.Where("chain_id = ?", chainId)
	if !caps.CanManageEvents {
		query = query.Where("is_internal = ?", false)
	}
	var events []models.AdjustmentEvent
	if err := query.Order("display_order asc, id asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
