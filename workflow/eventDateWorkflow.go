package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/kpi_backend/config"
	"bitbucket.org/mmdatafocus/kpi_backend/models"
	"bitbucket.org/mmdatafocus/kpi_backend/utils"
	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var validate = validator.New()

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// EventDateInput is the caller-facing payload for creating or updating an
// event occurrence. ReferenceDate left zero defaults to NominalDate; Channel
// left empty defaults to the "All" wildcard.
type EventDateInput struct {
	EventId       int       `json:"event_id" validate:"required,gt=0"`
	NominalDate   time.Time `json:"nominal_date" validate:"required"`
	ReferenceDate time.Time `json:"reference_date"`
	Channel       string    `json:"channel" validate:"max=100"`
	StoreGroupId  *int      `json:"store_group_id" validate:"omitempty,gt=0"`
	StoreCode     *string   `json:"store_code" validate:"omitempty,min=1,max=10"`
}

// EventDateKey is the composite identity of one occurrence row. Rows carry a
// surrogate ID, but callers address them by business key so a re-submitted
// form targets the same row regardless of insertion order.
type EventDateKey struct {
	EventId      int       `json:"event_id"`
	NominalDate  time.Time `json:"nominal_date"`
	Channel      string    `json:"channel"`
	StoreGroupId *int      `json:"store_group_id"`
	StoreCode    *string   `json:"store_code"`
}

func (k EventDateKey) String() string {
	scope := "all"
	if k.StoreGroupId != nil {
		scope = fmt.Sprintf("group:%d", *k.StoreGroupId)
	} else if k.StoreCode != nil {
		scope = "store:" + *k.StoreCode
	}
	channel := k.Channel
	if channel == "" {
		channel = models.ChannelAll
	}
	return fmt.Sprintf("event=%d date=%s channel=%s scope=%s",
		k.EventId, utils.DateOnly(k.NominalDate).Format("2006-01-02"), channel, scope)
}

func validateEventDateInput(input EventDateInput) error {
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &utils.ValidationError{Fields: utils.ProcessValidationErrors(err)}
		}
		return err
	}
	if input.StoreGroupId != nil && input.StoreCode != nil {
		return utils.NewValidationError(models.ErrConflictingScope.Error())
	}
	if config.StrictEventDateScope() && input.StoreGroupId == nil && input.StoreCode == nil {
		return utils.NewValidationError("a store-group or single-store scope is required")
	}
	return nil
}

// acquireAdjustmentLock serializes event-date mutations per chain across
// instances. A missing lock client is tolerated with a warning so local
// development without Redis still works; a held lock is a hard conflict.
func acquireAdjustmentLock(ctx context.Context, logger *logrus.Logger, chainId string, funcName string) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		logger.WithFields(logrus.Fields{
			"module":   "eventDateWorkflow.go",
			"funcName": funcName,
			"chain_id": chainId,
		}).Warn("redis lock not ready; proceeding without cross-instance serialization")
		return nil, nil
	}
	lock, err := locker.Obtain(ctx, "eventAdjust:"+chainId, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		return nil, fmt.Errorf("another adjustment for chain %s is in progress", chainId)
	} else if err != nil {
		config.LogError(logger, "eventDateWorkflow.go", funcName, "ObtainLock", chainId, err)
		return nil, err
	}
	return lock, nil
}

func releaseAdjustmentLock(ctx context.Context, lock *redislock.Lock) {
	if lock == nil {
		return
	}
	_ = lock.Release(ctx)
}

func correlationId(ctx context.Context) string {
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok && cid != "" {
		return cid
	}
	return uuid.NewString()
}

func findEventDateByKey(tx *gorm.DB, chainId string, key EventDateKey) (*models.EventDate, error) {
	channel := key.Channel
	if channel == "" {
		channel = models.ChannelAll
	}
	query := tx.Where("chain_id = ? AND event_id = ? AND nominal_date = ? AND channel = ?",
		chainId, key.EventId, utils.DateOnly(key.NominalDate), channel)
	if key.StoreGroupId != nil {
		query = query.Where("store_group_id = ?", *key.StoreGroupId)
	} else {
		query = query.Where("store_group_id IS NULL")
	}
	if key.StoreCode != nil {
		query = query.Where("store_code = ?", *key.StoreCode)
	} else {
		query = query.Where("store_code IS NULL")
	}

	var row models.EventDate
	err := query.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("event date", "%s", key)
	} else if err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateEventDate registers a new occurrence in Pending state. Duplicate
// composite keys are rejected as validation errors, not silently merged.
func CreateEventDate(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, caps models.ActorCapabilities, input EventDateInput) (*models.EventDate, error) {
	if !caps.CanManageEvents {
		return nil, utils.ErrorNotAllowed
	}
	if err := validateEventDateInput(input); err != nil {
		return nil, err
	}
	chainId, ok := utils.GetChainIdFromContext(ctx)
	if !ok {
		return nil, utils.NewValidationError("missing chain id")
	}

	lock, err := acquireAdjustmentLock(ctx, logger, chainId, "CreateEventDate")
	if err != nil {
		return nil, err
	}
	defer releaseAdjustmentLock(ctx, lock)

	var event models.AdjustmentEvent
	err = tx.Where("chain_id = ? AND id = ?", chainId, input.EventId).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("adjustment event", "id=%d", input.EventId)
	} else if err != nil {
		config.LogError(logger, "eventDateWorkflow.go", "CreateEventDate", "FindEvent", input.EventId, err)
		return nil, err
	}

	key := EventDateKey{
		EventId:      input.EventId,
		NominalDate:  input.NominalDate,
		Channel:      input.Channel,
		StoreGroupId: input.StoreGroupId,
		StoreCode:    input.StoreCode,
	}
	if existing, err := findEventDateByKey(tx, chainId, key); err == nil && existing != nil {
		return nil, utils.NewValidationError("event date already exists: " + key.String())
	} else if err != nil && !utils.IsNotFoundError(err) {
		return nil, err
	}

	row := models.EventDate{
		ChainId:       chainId,
		EventId:       input.EventId,
		NominalDate:   utils.DateOnly(input.NominalDate),
		ReferenceDate: utils.DateOnly(input.ReferenceDate),
		Channel:       input.Channel,
		StoreGroupId:  input.StoreGroupId,
		StoreCode:     input.StoreCode,
		ApprovalState: models.ApprovalStatePending,
		CreatedBy:     caps.Actor,
		UpdatedBy:     caps.Actor,
	}
	if input.ReferenceDate.IsZero() {
		row.ReferenceDate = row.NominalDate
	}
	if err := tx.Create(&row).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return nil, utils.NewValidationError("event date already exists: " + key.String())
		}
		config.LogError(logger, "eventDateWorkflow.go", "CreateEventDate", "CreateRow", row, err)
		return nil, err
	}

	if err := InvalidatePeriodCache(chainId); err != nil {
		config.LogError(logger, "eventDateWorkflow.go", "CreateEventDate", "InvalidatePeriodCache", chainId, err)
	}
	logger.WithFields(logrus.Fields{
		"module":         "eventDateWorkflow.go",
		"chain_id":       chainId,
		"correlation_id": correlationId(ctx),
		"event_date_id":  row.ID,
		"key":            key.String(),
		"actor":          caps.Actor,
	}).Info("event date created")
	return &row, nil
}

// UpdateEventDate rewrites the dates, channel and scope of an existing
// occurrence addressed by its current composite key. The approval state and
// rejection reason are never touched here: an edit to an approved row stays
// approved until someone explicitly re-reviews it.
func UpdateEventDate(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, caps models.ActorCapabilities, key EventDateKey, input EventDateInput) (*models.EventDate, error) {
	if !caps.CanManageEvents {
		return nil, utils.ErrorNotAllowed
	}
	if err := validateEventDateInput(input); err != nil {
		return nil, err
	}
	chainId, ok := utils.GetChainIdFromContext(ctx)
	if !ok {
		return nil, utils.NewValidationError("missing chain id")
	}

	lock, err := acquireAdjustmentLock(ctx, logger, chainId, "UpdateEventDate")
	if err != nil {
		return nil, err
	}
	defer releaseAdjustmentLock(ctx, lock)

	row, err := findEventDateByKey(tx, chainId, key)
	if err != nil {
		return nil, err
	}

	newKey := EventDateKey{
		EventId:      input.EventId,
		NominalDate:  input.NominalDate,
		Channel:      input.Channel,
		StoreGroupId: input.StoreGroupId,
		StoreCode:    input.StoreCode,
	}
	if newKey.String() != key.String() {
		if clash, err := findEventDateByKey(tx, chainId, newKey); err == nil && clash != nil && clash.ID != row.ID {
			return nil, utils.NewValidationError("event date already exists: " + newKey.String())
		} else if err != nil && !utils.IsNotFoundError(err) {
			return nil, err
		}
	}

	row.EventId = input.EventId
	row.NominalDate = utils.DateOnly(input.NominalDate)
	row.ReferenceDate = utils.DateOnly(input.ReferenceDate)
	if input.ReferenceDate.IsZero() {
		row.ReferenceDate = row.NominalDate
	}
	row.Channel = input.Channel
	row.StoreGroupId = input.StoreGroupId
	row.StoreCode = input.StoreCode
	row.UpdatedBy = caps.Actor

	if err := tx.Save(row).Error; err != nil {
		config.LogError(logger, "eventDateWorkflow.go", "UpdateEventDate", "SaveRow", row, err)
		return nil, err
	}

	if err := InvalidatePeriodCache(chainId); err != nil {
		config.LogError(logger, "eventDateWorkflow.go", "UpdateEventDate", "InvalidatePeriodCache", chainId, err)
	}
	logger.WithFields(logrus.Fields{
		"module":         "eventDateWorkflow.go",
		"chain_id":       chainId,
		"correlation_id": correlationId(ctx),
		"event_date_id":  row.ID,
		"key":            newKey.String(),
		"actor":          caps.Actor,
	}).Info("event date updated")
	return row, nil
}

// DeleteEventDate removes one occurrence by composite key.
func DeleteEventDate(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, caps models.ActorCapabilities, key EventDateKey) error {
	if !caps.CanManageEvents {
		return utils.ErrorNotAllowed
	}
	chainId, ok := utils.GetChainIdFromContext(ctx)
	if !ok {
		return utils.NewValidationError("missing chain id")
	}

	lock, err := acquireAdjustmentLock(ctx, logger, chainId, "DeleteEventDate")
	if err != nil {
		return err
	}
	defer releaseAdjustmentLock(ctx, lock)

	row, err := findEventDateByKey(tx, chainId, key)
	if err != nil {
		return err
	}
	if err := tx.Delete(&models.EventDate{}, "id = ?", row.ID).Error; err != nil {
		config.LogError(logger, "eventDateWorkflow.go", "DeleteEventDate", "DeleteRow", row.ID, err)
		return err
	}

	if err := InvalidatePeriodCache(chainId); err != nil {
		config.LogError(logger, "eventDateWorkflow.go", "DeleteEventDate", "InvalidatePeriodCache", chainId, err)
	}
	logger.WithFields(logrus.Fields{
		"module":         "eventDateWorkflow.go",
		"chain_id":       chainId,
		"correlation_id": correlationId(ctx),
		"event_date_id":  row.ID,
		"key":            key.String(),
		"actor":          caps.Actor,
	}).Info("event date deleted")
	return nil
}

// ApplyApprovalTransition mutates the in-memory row for an approve or reject
// decision. Pure: no DB, no capability checks. Transitions are reversible in
// both directions; a rejection always requires a reason and an approval
// always clears the previous one.
func ApplyApprovalTransition(row *models.EventDate, target models.ApprovalState, reason string, actor string) error {
	switch target {
	case models.ApprovalStateApproved:
		row.ApprovalState = models.ApprovalStateApproved
		row.RejectionReason = ""
		row.ApprovedBy = actor
	case models.ApprovalStateRejected:
		if strings.TrimSpace(reason) == "" {
			return utils.NewFieldValidationError("rejection_reason", "required when rejecting")
		}
		row.ApprovalState = models.ApprovalStateRejected
		row.RejectionReason = reason
		row.ApprovedBy = ""
	default:
		return utils.NewFieldValidationError("approval_state", "must be Approved or Rejected")
	}
	row.UpdatedBy = actor
	return nil
}

func decideEventDate(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, caps models.ActorCapabilities, key EventDateKey, target models.ApprovalState, reason string) (*models.EventDate, error) {
	if !caps.CanApprove {
		return nil, utils.ErrorNotAllowed
	}
	chainId, ok := utils.GetChainIdFromContext(ctx)
	if !ok {
		return nil, utils.NewValidationError("missing chain id")
	}

	lock, err := acquireAdjustmentLock(ctx, logger, chainId, "decideEventDate")
	if err != nil {
		return nil, err
	}
	defer releaseAdjustmentLock(ctx, lock)

	row, err := findEventDateByKey(tx, chainId, key)
	if err != nil {
		return nil, err
	}
	if err := ApplyApprovalTransition(row, target, reason, caps.Actor); err != nil {
		return nil, err
	}
	if err := tx.Save(row).Error; err != nil {
		config.LogError(logger, "eventDateWorkflow.go", "decideEventDate", "SaveRow", row, err)
		return nil, err
	}

	if err := InvalidatePeriodCache(chainId); err != nil {
		config.LogError(logger, "eventDateWorkflow.go", "decideEventDate", "InvalidatePeriodCache", chainId, err)
	}
	logger.WithFields(logrus.Fields{
		"module":         "eventDateWorkflow.go",
		"chain_id":       chainId,
		"correlation_id": correlationId(ctx),
		"event_date_id":  row.ID,
		"key":            key.String(),
		"state":          row.ApprovalState,
		"actor":          caps.Actor,
	}).Info("event date decided")
	return row, nil
}

// ApproveEventDate marks the occurrence Approved and records the approver.
func ApproveEventDate(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, caps models.ActorCapabilities, key EventDateKey) (*models.EventDate, error) {
	return decideEventDate(ctx, tx, logger, caps, key, models.ApprovalStateApproved, "")
}

// RejectEventDate marks the occurrence Rejected with a mandatory reason.
func RejectEventDate(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, caps models.ActorCapabilities, key EventDateKey, reason string) (*models.EventDate, error) {
	return decideEventDate(ctx, tx, logger, caps, key, models.ApprovalStateRejected, reason)
}
