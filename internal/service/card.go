package service

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/qr"
	"RewardCardPlatform/internal/store"
	"RewardCardPlatform/pkg/errors"
	"RewardCardPlatform/pkg/logger"
	"RewardCardPlatform/pkg/metrics"
)

// ExpiringSoonWindow карта считается истекающей, если до срока меньше трех дней
const ExpiringSoonWindow = 3 * 24 * time.Hour

// redeemAttempts число попыток условной записи при погашении
const redeemAttempts = 3

// IssueRequest параметры выдачи карты
type IssueRequest struct {
	CardID     string          `json:"cardId,omitempty"`
	EmployeeID string          `json:"employeeId"`
	CardType   domain.CardType `json:"cardType"`
	Approver   domain.Approver `json:"approver"`
}

// Summary сводка для панели управления
type Summary struct {
	TotalEmployees int `json:"totalEmployees"`
	ActiveCards    int `json:"activeCards"`
	ExpiringSoon   int `json:"expiringSoon"`
	ExpiredCards   int `json:"expiredCards"`
	RedeemedCards  int `json:"redeemedCards"`
	ActivePoints   int `json:"activePoints"`
}

// CardService жизненный цикл карт поощрения
type CardService struct {
	cards     CardStore
	employees EmployeeStore
	managers  ManagerStore
	encoder   qr.Encoder
	clock     clockwork.Clock
	metrics   *metrics.Metrics
	logger    logger.Logger
	newID     func() string
}

// NewCardService создает сервис карт
func NewCardService(
	cards CardStore,
	employees EmployeeStore,
	managers ManagerStore,
	encoder qr.Encoder,
	clock clockwork.Clock,
	m *metrics.Metrics,
	log logger.Logger,
) *CardService {
	return &CardService{
		cards:     cards,
		employees: employees,
		managers:  managers,
		encoder:   encoder,
		clock:     clock,
		metrics:   m,
		logger:    log.With(logger.String("component", "card_service")),
		newID:     GenerateCardID,
	}
}

// GenerateCardID короткий идентификатор карты: первые 8 символов UUIDv4
func GenerateCardID() string {
	return uuid.New().String()[:8]
}

// Issue выдает карту сотруднику.
// Идентификатор погашенной карты освобождается и переиспользуется; идентификатор
// активной карты занят. Проигравший гонку за идентификатор получает CARD_ID_IN_USE.
func (s *CardService) Issue(ctx context.Context, req IssueRequest) (card *domain.RewardCard, err error) {
	ctx, span := s.metrics.StartSpan(ctx, "card.issue",
		attribute.String("card.type", string(req.CardType)),
		attribute.String("employee.id", req.EmployeeID),
	)
	defer func() { s.finish(ctx, span, "issue", err) }()

	if !req.CardType.Valid() {
		return nil, domain.Validation("cardType must be one of basic, gold, platinum")
	}
	if strings.TrimSpace(req.EmployeeID) == "" {
		return nil, domain.Validation("employeeId is required")
	}
	if err := domain.CheckIssuanceApproval(req.CardType, req.Approver, managerExists(ctx, s.managers)); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(req.CardID)
	if id == "" {
		id = s.newID()
	} else if err := domain.ValidateCardID(id); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("card.id", id))

	previous, err := s.cards.Get(ctx, id)
	switch {
	case err == nil:
		if !previous.IsRedeemed {
			return nil, domain.ErrCardIDInUse.WithDetails(id)
		}
	case errors.IsCode(err, errors.ErrNotFound):
		previous = nil
	default:
		return nil, err
	}

	employee, err := s.employees.Get(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if employee.IsLocked {
		return nil, domain.ErrEmployeeLocked.WithDetails(employee.LockReason)
	}

	now := s.clock.Now().UTC()
	qrCode, err := s.encoder.Encode(id)
	if err != nil {
		return nil, err
	}
	card = &domain.RewardCard{
		ID:           id,
		EmployeeID:   employee.ID,
		CardType:     req.CardType,
		Points:       req.CardType.Points(),
		IssuedAt:     now,
		ExpiresAt:    domain.ExpiresAt(employee.EmploymentType, now),
		ApprovedBy:   req.Approver.ID,
		ApproverName: req.Approver.Name,
		ApproverRole: req.Approver.Role,
		QRCode:       qrCode,
	}

	if previous != nil {
		if err := s.cards.DeleteAtRevision(ctx, previous); err != nil {
			switch {
			case stderrors.Is(err, store.ErrRevisionMismatch):
				return nil, domain.ErrCardIDInUse.WithDetails(id).WithCause(err)
			case !errors.IsCode(err, errors.ErrNotFound):
				return nil, err
			}
		}
		s.logger.Info("Redeemed card id released for reuse",
			logger.CtxField(ctx),
			logger.String("card_id", id),
			logger.String("previous_employee_id", previous.EmployeeID),
		)
	}

	if err := s.cards.Create(ctx, card); err != nil {
		return nil, err
	}

	s.metrics.ObserveCardIssued(string(card.CardType))
	s.logger.Info("Reward card issued",
		logger.CtxField(ctx),
		logger.String("card_id", card.ID),
		logger.String("employee_id", card.EmployeeID),
		logger.String("card_type", string(card.CardType)),
		logger.Time("expires_at", card.ExpiresAt),
	)
	return card, nil
}

// Redeem погашает карту с одобрением отсканированного руководителя.
// Роль одобряющего решает, кто бы ни был вошедшим пользователем.
func (s *CardService) Redeem(ctx context.Context, cardID string, approver domain.Approver) (*domain.RewardCard, error) {
	return s.redeem(ctx, cardID, approver, true)
}

// RedeemAsAdmin прямое погашение администратором без проверки одобрения
func (s *CardService) RedeemAsAdmin(ctx context.Context, cardID string) (*domain.RewardCard, error) {
	return s.redeem(ctx, cardID, domain.AdminApprover(), false)
}

func (s *CardService) redeem(ctx context.Context, cardID string, approver domain.Approver, checkApproval bool) (card *domain.RewardCard, err error) {
	ctx, span := s.metrics.StartSpan(ctx, "card.redeem",
		attribute.String("card.id", cardID),
		attribute.String("approver.role", approver.Role),
		attribute.Bool("admin_direct", !checkApproval),
	)
	defer func() { s.finish(ctx, span, "redeem", err) }()

	if checkApproval {
		if err := domain.CheckRedemptionApproval(approver, managerExists(ctx, s.managers)); err != nil {
			return nil, err
		}
	}

	for attempt := 1; attempt <= redeemAttempts; attempt++ {
		card, err = s.cards.Get(ctx, cardID)
		if err != nil {
			return nil, err
		}
		if err := card.CanRedeem(s.clock.Now()); err != nil {
			return nil, err
		}

		card.MarkRedeemed(s.clock.Now().UTC(), approver)
		err = s.cards.Swap(ctx, card)
		if err == nil {
			s.metrics.ObserveCardRedeemed(string(card.CardType))
			s.logger.Info("Reward card redeemed",
				logger.CtxField(ctx),
				logger.String("card_id", card.ID),
				logger.String("approved_by", approver.ID),
				logger.String("approver_role", approver.Role),
			)
			return card, nil
		}
		if !stderrors.Is(err, store.ErrRevisionMismatch) {
			return nil, err
		}
		s.logger.Debug("Card changed during redemption, retrying",
			logger.CtxField(ctx),
			logger.String("card_id", cardID),
			logger.Int("attempt", attempt),
		)
	}
	return nil, domain.ErrAlreadyRedeemed.WithDetails(cardID).WithCause(err)
}

// Delete удаляет карту; отсутствующая карта дает CARD_NOT_FOUND
func (s *CardService) Delete(ctx context.Context, cardID string) error {
	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return err
	}
	if err := s.cards.Delete(ctx, card); err != nil {
		return err
	}
	s.logger.Info("Reward card deleted",
		logger.CtxField(ctx),
		logger.String("card_id", cardID),
	)
	return nil
}

// Get возвращает карту
func (s *CardService) Get(ctx context.Context, cardID string) (*domain.RewardCard, error) {
	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return nil, degradeGet(ctx, s.logger, "get_card", err, domain.ErrCardNotFound)
	}
	return card, nil
}

// List возвращает все карты, новые первыми
func (s *CardService) List(ctx context.Context) ([]*domain.RewardCard, error) {
	cards, err := s.cards.List(ctx)
	cards, err = degradeList(ctx, s.logger, "list_cards", cards, err)
	sortByIssued(cards)
	return cards, err
}

// ListByEmployee возвращает карты сотрудника, новые первыми
func (s *CardService) ListByEmployee(ctx context.Context, employeeID string) ([]*domain.RewardCard, error) {
	cards, err := s.cards.ListByEmployee(ctx, employeeID)
	cards, err = degradeList(ctx, s.logger, "list_employee_cards", cards, err)
	sortByIssued(cards)
	return cards, err
}

// ListRedeemed возвращает погашенные карты, последние погашения первыми
func (s *CardService) ListRedeemed(ctx context.Context) ([]*domain.RewardCard, error) {
	cards, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	redeemed := make([]*domain.RewardCard, 0, len(cards))
	for _, c := range cards {
		if c.IsRedeemed {
			redeemed = append(redeemed, c)
		}
	}
	sort.SliceStable(redeemed, func(i, j int) bool {
		return redeemedAt(redeemed[i]).After(redeemedAt(redeemed[j]))
	})
	return redeemed, nil
}

// Summary считает показатели панели управления на текущий момент
func (s *CardService) Summary(ctx context.Context) (*Summary, error) {
	employees, err := s.employees.List(ctx)
	if employees, err = degradeList(ctx, s.logger, "summary_employees", employees, err); err != nil {
		return nil, err
	}
	cards, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sum := &Summary{TotalEmployees: len(employees)}
	for _, c := range cards {
		switch c.Status(now) {
		case domain.StatusRedeemed:
			sum.RedeemedCards++
		case domain.StatusExpired:
			sum.ExpiredCards++
		case domain.StatusActive:
			sum.ActiveCards++
			sum.ActivePoints += c.Points
			if c.ExpiringWithin(now, ExpiringSoonWindow) {
				sum.ExpiringSoon++
			}
		}
	}
	return sum, nil
}

func (s *CardService) finish(ctx context.Context, span trace.Span, operation string, err error) {
	defer span.End()
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	reason := string(errors.ReasonOf(err))
	if reason == "" {
		reason = string(errors.CodeOf(err))
	}
	s.metrics.ObserveFailure(operation, reason)
	s.logger.Warn("Card operation rejected",
		logger.CtxField(ctx),
		logger.String("operation", operation),
		logger.String("reason", reason),
		logger.Error(err),
	)
}

func sortByIssued(cards []*domain.RewardCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].IssuedAt.After(cards[j].IssuedAt)
	})
}

func redeemedAt(c *domain.RewardCard) time.Time {
	if c.RedeemedAt == nil {
		return time.Time{}
	}
	return *c.RedeemedAt
}
