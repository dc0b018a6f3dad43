package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/pkg/errors"
	"RewardCardPlatform/pkg/logger"
)

// EmployeeInput данные для создания сотрудника
type EmployeeInput struct {
	Name           string                `json:"name"`
	Position       string                `json:"position"`
	EmploymentType domain.EmploymentType `json:"employmentType"`
}

// EmployeeUpdate изменяемые поля сотрудника; nil означает "не менять"
type EmployeeUpdate struct {
	Name           *string                `json:"name,omitempty"`
	Position       *string                `json:"position,omitempty"`
	EmploymentType *domain.EmploymentType `json:"employmentType,omitempty"`
	IsLocked       *bool                  `json:"isLocked,omitempty"`
	LockReason     *string                `json:"lockReason,omitempty"`
}

// EmployeeService операции над сотрудниками
type EmployeeService struct {
	employees EmployeeStore
	cards     CardStore
	clock     clockwork.Clock
	logger    logger.Logger
}

// NewEmployeeService создает сервис сотрудников
func NewEmployeeService(employees EmployeeStore, cards CardStore, clock clockwork.Clock, log logger.Logger) *EmployeeService {
	return &EmployeeService{
		employees: employees,
		cards:     cards,
		clock:     clock,
		logger:    log.With(logger.String("component", "employee_service")),
	}
}

// Create создает сотрудника; пустой тип занятости означает full-time
func (s *EmployeeService) Create(ctx context.Context, in EmployeeInput) (*domain.Employee, error) {
	if in.EmploymentType == "" {
		in.EmploymentType = domain.EmploymentFullTime
	}
	e := &domain.Employee{
		ID:             uuid.New().String(),
		Name:           strings.TrimSpace(in.Name),
		Position:       strings.TrimSpace(in.Position),
		EmploymentType: in.EmploymentType,
		CreatedAt:      s.clock.Now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.employees.Save(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("Employee created",
		logger.CtxField(ctx),
		logger.String("employee_id", e.ID),
		logger.String("employment_type", string(e.EmploymentType)),
	)
	return e, nil
}

// Get возвращает сотрудника
func (s *EmployeeService) Get(ctx context.Context, id string) (*domain.Employee, error) {
	e, err := s.employees.Get(ctx, id)
	if err != nil {
		return nil, degradeGet(ctx, s.logger, "get_employee", err, domain.ErrEmployeeNotFound)
	}
	return e, nil
}

// List возвращает всех сотрудников
func (s *EmployeeService) List(ctx context.Context) ([]*domain.Employee, error) {
	items, err := s.employees.List(ctx)
	return degradeList(ctx, s.logger, "list_employees", items, err)
}

// Update применяет изменения. Снятие блокировки очищает причину.
func (s *EmployeeService) Update(ctx context.Context, id string, upd EmployeeUpdate) (*domain.Employee, error) {
	e, err := s.employees.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		e.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Position != nil {
		e.Position = strings.TrimSpace(*upd.Position)
	}
	if upd.EmploymentType != nil {
		e.EmploymentType = *upd.EmploymentType
	}
	switch {
	case upd.IsLocked == nil:
		if upd.LockReason != nil && e.IsLocked {
			e.LockReason = strings.TrimSpace(*upd.LockReason)
		}
	case *upd.IsLocked:
		reason := e.LockReason
		if upd.LockReason != nil {
			reason = *upd.LockReason
		}
		e.Lock(reason)
	default:
		e.Unlock()
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.employees.Save(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Lock блокирует выдачу поощрений сотруднику
func (s *EmployeeService) Lock(ctx context.Context, id, reason string) (*domain.Employee, error) {
	locked := true
	return s.Update(ctx, id, EmployeeUpdate{IsLocked: &locked, LockReason: &reason})
}

// Unlock снимает блокировку
func (s *EmployeeService) Unlock(ctx context.Context, id string) (*domain.Employee, error) {
	unlocked := false
	return s.Update(ctx, id, EmployeeUpdate{IsLocked: &unlocked})
}

// Delete удаляет все карты сотрудника, затем самого сотрудника.
// Транзакции нет: ошибка посреди каскада оставляет часть карт удаленными.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	_, getErr := s.employees.Get(ctx, id)
	if getErr != nil && !errors.IsCode(getErr, errors.ErrNotFound) {
		return getErr
	}

	cardIDs, err := s.employees.CardIDs(ctx, id)
	if err != nil {
		return err
	}
	if getErr != nil && len(cardIDs) == 0 {
		return getErr
	}

	for _, cardID := range cardIDs {
		if err := s.deleteCard(ctx, id, cardID); err != nil {
			s.logger.Error("Employee cascade delete interrupted",
				logger.CtxField(ctx),
				logger.String("employee_id", id),
				logger.String("card_id", cardID),
				logger.Error(err),
			)
			return err
		}
	}

	if err := s.employees.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Employee deleted",
		logger.CtxField(ctx),
		logger.String("employee_id", id),
		logger.Int("cards_deleted", len(cardIDs)),
	)
	return nil
}

func (s *EmployeeService) deleteCard(ctx context.Context, employeeID, cardID string) error {
	card, err := s.cards.Get(ctx, cardID)
	switch {
	case err == nil && card.EmployeeID != employeeID:
		s.logger.Warn("Stale card index entry, card belongs to another employee",
			logger.CtxField(ctx),
			logger.String("employee_id", employeeID),
			logger.String("card_id", cardID),
			logger.String("owner_id", card.EmployeeID),
		)
		return s.cards.Unlink(ctx, employeeID, cardID)
	case err == nil:
		return s.cards.Delete(ctx, card)
	case errors.IsCode(err, errors.ErrNotFound):
		// запись отсутствует или повреждена; чистим индексы и ключ
		return s.cards.DeleteByID(ctx, employeeID, cardID)
	default:
		return err
	}
}
