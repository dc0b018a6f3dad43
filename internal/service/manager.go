package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/pkg/password"
	"RewardCardPlatform/internal/qr"
	"RewardCardPlatform/pkg/errors"
	"RewardCardPlatform/pkg/logger"
	"RewardCardPlatform/pkg/metrics"
)

// Методы входа для метрик
const (
	LoginMethodID   = "id"
	LoginMethodName = "name"
)

// ManagerInput данные карты руководителя. Пустой Password при обновлении
// оставляет прежний пароль.
type ManagerInput struct {
	Name        string              `json:"name"`
	Position    string              `json:"position"`
	Role        domain.Role         `json:"role"`
	Permissions []domain.Permission `json:"permissions,omitempty"`
	Password    string              `json:"password,omitempty"`
}

// ManagerService операции над картами руководителей и проверка учетных данных
type ManagerService struct {
	managers ManagerStore
	hasher   password.Hasher
	encoder  qr.Encoder
	clock    clockwork.Clock
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// NewManagerService создает сервис руководителей
func NewManagerService(
	managers ManagerStore,
	hasher password.Hasher,
	encoder qr.Encoder,
	clock clockwork.Clock,
	m *metrics.Metrics,
	log logger.Logger,
) *ManagerService {
	return &ManagerService{
		managers: managers,
		hasher:   hasher,
		encoder:  encoder,
		clock:    clock,
		metrics:  m,
		logger:   log.With(logger.String("component", "manager_service")),
	}
}

// Create создает карту руководителя; QR-код кодирует голый идентификатор
func (s *ManagerService) Create(ctx context.Context, in ManagerInput) (*domain.ManagerCard, error) {
	m := &domain.ManagerCard{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Position:    strings.TrimSpace(in.Position),
		Role:        in.Role,
		CreatedAt:   s.clock.Now().UTC(),
		Permissions: in.Permissions,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.setPassword(m, in.Password); err != nil {
		return nil, err
	}

	qrCode, err := s.encoder.Encode(m.ID)
	if err != nil {
		return nil, err
	}
	m.QRCode = qrCode

	if err := s.managers.Save(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("Manager card created",
		logger.CtxField(ctx),
		logger.String("manager_id", m.ID),
		logger.String("role", string(m.Role)),
	)
	return m, nil
}

// Update изменяет карту руководителя. QR-код перевыпускается с JSON-пейлоадом,
// чтобы при сканировании были доступны имя, роль и права.
func (s *ManagerService) Update(ctx context.Context, id string, in ManagerInput) (*domain.ManagerCard, error) {
	m, err := s.managers.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	m.Name = strings.TrimSpace(in.Name)
	m.Position = strings.TrimSpace(in.Position)
	m.Role = in.Role
	m.Permissions = in.Permissions
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.setPassword(m, in.Password); err != nil {
		return nil, err
	}

	payload, err := domain.ManagerPayload(m)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to build manager payload")
	}
	if m.QRCode, err = s.encoder.Encode(payload); err != nil {
		return nil, err
	}

	if err := s.managers.Save(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("Manager card updated",
		logger.CtxField(ctx),
		logger.String("manager_id", m.ID),
		logger.Bool("password_changed", in.Password != ""),
	)
	return m, nil
}

// UpdatePassword задает новый пароль руководителя
func (s *ManagerService) UpdatePassword(ctx context.Context, id, newPassword string) error {
	if newPassword == "" {
		return domain.Validation("password is required")
	}
	m, err := s.managers.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.setPassword(m, newPassword); err != nil {
		return err
	}
	if err := s.managers.Save(ctx, m); err != nil {
		return err
	}
	s.logger.Info("Manager password updated",
		logger.CtxField(ctx),
		logger.String("manager_id", id),
	)
	return nil
}

func (s *ManagerService) setPassword(m *domain.ManagerCard, plain string) error {
	if plain == "" {
		return nil
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to hash password")
	}
	m.Password = hash
	return nil
}

// Get возвращает карту руководителя
func (s *ManagerService) Get(ctx context.Context, id string) (*domain.ManagerCard, error) {
	m, err := s.managers.Get(ctx, id)
	if err != nil {
		return nil, degradeGet(ctx, s.logger, "get_manager", err, domain.ErrManagerNotFound)
	}
	return m, nil
}

// List возвращает все карты руководителей
func (s *ManagerService) List(ctx context.Context) ([]*domain.ManagerCard, error) {
	items, err := s.managers.List(ctx)
	return degradeList(ctx, s.logger, "list_managers", items, err)
}

// Delete удаляет карту руководителя. Уже одобренные карты поощрения
// сохраняют имя и роль одобрившего.
func (s *ManagerService) Delete(ctx context.Context, id string) error {
	if _, err := s.managers.Get(ctx, id); err != nil {
		return err
	}
	if err := s.managers.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Manager card deleted",
		logger.CtxField(ctx),
		logger.String("manager_id", id),
	)
	return nil
}

// Exists проверяет существование карты руководителя. Ошибки хранилища
// возвращаются как есть, чтобы вызывающий мог решить, как с ними поступить.
func (s *ManagerService) Exists(ctx context.Context, id string) (bool, error) {
	return managerExists(ctx, s.managers)(id)
}

// VerifyCredentials проверяет пароль руководителя по идентификатору
func (s *ManagerService) VerifyCredentials(ctx context.Context, id, plain string) (domain.ManagerInfo, error) {
	if id == "" || plain == "" {
		return domain.ManagerInfo{}, domain.Validation("manager id and password are required")
	}
	m, err := s.managers.Get(ctx, id)
	if err != nil {
		if errors.IsCode(err, errors.ErrNotFound) {
			s.metrics.ObserveLogin(LoginMethodID, false)
			return domain.ManagerInfo{}, domain.ErrInvalidIdentity.WithDetails(id)
		}
		return domain.ManagerInfo{}, err
	}
	if !s.hasher.Check(plain, m.Password) {
		s.metrics.ObserveLogin(LoginMethodID, false)
		s.logger.Warn("Invalid manager password",
			logger.CtxField(ctx),
			logger.String("manager_id", id),
		)
		return domain.ManagerInfo{}, domain.ErrInvalidPassword
	}
	s.metrics.ObserveLogin(LoginMethodID, true)
	return m.Info(), nil
}

// Authenticate ищет руководителя по имени без учета регистра и проверяет пароль
func (s *ManagerService) Authenticate(ctx context.Context, username, plain string) (domain.ManagerInfo, error) {
	if username == "" || plain == "" {
		return domain.ManagerInfo{}, domain.Validation("username and password are required")
	}
	managers, err := s.managers.List(ctx)
	if err != nil {
		return domain.ManagerInfo{}, err
	}
	for _, m := range managers {
		if strings.EqualFold(m.Name, strings.TrimSpace(username)) && s.hasher.Check(plain, m.Password) {
			s.metrics.ObserveLogin(LoginMethodName, true)
			return m.Info(), nil
		}
	}
	s.metrics.ObserveLogin(LoginMethodName, false)
	return domain.ManagerInfo{}, domain.ErrInvalidPassword
}
