// Package session управляет клиентской сессией руководителя: вход по карте
// или паролю, права, автоматический выход после бездействия.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/pkg/errors"
	"RewardCardPlatform/pkg/logger"
)

// Ошибки сессии
var (
	ErrNotLoggedIn    = errors.New(errors.ErrForbidden, "not logged in").WithReason(errors.ReasonNotLoggedIn)
	ErrSessionExpired = errors.New(errors.ErrExpired, "session expired after inactivity").WithReason(errors.ReasonSessionExpired)
)

// State этап жизненного цикла сессии
type State string

const (
	StateUninitialized State = "uninitialized"
	StateRestored      State = "restored"
	StateActive        State = "active"
	StateExpired       State = "expired"
	StateLoggedOut     State = "logged_out"
)

// LogoutReason причина завершения сессии
type LogoutReason string

const (
	LogoutManual     LogoutReason = "manual"
	LogoutInactivity LogoutReason = "inactivity"
)

// Signal класс действия пользователя
type Signal string

const (
	SignalPointerDown Signal = "pointer-down"
	SignalKeyDown     Signal = "key-down"
	SignalTouchStart  Signal = "touch-start"
	SignalScroll      Signal = "scroll"
)

// Valid сообщает, сбрасывает ли сигнал таймер бездействия
func (s Signal) Valid() bool {
	switch s {
	case SignalPointerDown, SignalKeyDown, SignalTouchStart, SignalScroll:
		return true
	}
	return false
}

// Directory проверяет существование карт руководителей и их учетные данные
type Directory interface {
	Exists(ctx context.Context, id string) (bool, error)
	VerifyCredentials(ctx context.Context, id, password string) (domain.ManagerInfo, error)
	UpdatePassword(ctx context.Context, id, password string) error
}

// storedIdentity значение ключа managerAuth
type storedIdentity struct {
	domain.ManagerInfo
	LastActivity int64 `json:"lastActivity,omitempty"`
}

// Manager сессия одного клиентского процесса
type Manager struct {
	directory Directory
	storage   Storage
	clock     clockwork.Clock
	logger    logger.Logger
	window    time.Duration

	mu           sync.Mutex
	state        State
	loggedIn     bool
	isAdmin      bool
	identity     *domain.ManagerInfo
	lastActivity time.Time
	timer        clockwork.Timer
	// generation отличает актуальный таймер от отмененных
	generation uint64
	onLogout   []func(LogoutReason)
}

// NewManager создает сессию в состоянии uninitialized
func NewManager(directory Directory, storage Storage, clock clockwork.Clock, log logger.Logger) *Manager {
	return &Manager{
		directory: directory,
		storage:   storage,
		clock:     clock,
		logger:    log.With(logger.String("component", "session")),
		window:    domain.InactivityWindow,
		state:     StateUninitialized,
	}
}

// OnLogout регистрирует обработчик завершения сессии
func (m *Manager) OnLogout(fn func(LogoutReason)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = append(m.onLogout, fn)
}

// Restore поднимает сессию из хранилища. Сессия, чье последнее действие
// старше окна бездействия, очищается и переходит в expired.
func (m *Manager) Restore(ctx context.Context) error {
	adminAuth, _, err := m.storage.Get(AdminAuthKey)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to read session storage")
	}
	raw, hasManager, err := m.storage.Get(ManagerAuthKey)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to read session storage")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	var stored storedIdentity
	if hasManager {
		if err := json.Unmarshal([]byte(raw), &stored); err != nil || stored.ID == "" {
			m.logger.Warn("Discarding unreadable stored identity", logger.CtxField(ctx), logger.Error(err))
			m.clearStorageLocked(ctx)
			m.state = StateLoggedOut
			return nil
		}
	}

	isAdmin := adminAuth == "true"
	if isAdmin {
		stored.ManagerInfo = domain.AdminIdentity()
	} else if !hasManager {
		m.state = StateLoggedOut
		return nil
	}

	lastActivity := now
	if stored.LastActivity > 0 {
		lastActivity = time.UnixMilli(stored.LastActivity)
	}
	if now.Sub(lastActivity) >= m.window {
		m.logger.Info("Stored session expired",
			logger.CtxField(ctx),
			logger.String("manager_id", stored.ID),
			logger.Time("last_activity", lastActivity),
		)
		m.clearStorageLocked(ctx)
		m.state = StateExpired
		return nil
	}

	info := stored.ManagerInfo
	info.Permissions = domain.EffectivePermissions(domain.Role(info.Role), info.Permissions)
	m.identity = &info
	m.isAdmin = isAdmin
	m.loggedIn = true
	m.lastActivity = lastActivity
	m.state = StateRestored
	m.scheduleLocked(m.window - now.Sub(lastActivity))

	m.logger.Debug("Session restored",
		logger.CtxField(ctx),
		logger.String("manager_id", info.ID),
		logger.Bool("admin", isAdmin),
	)
	return nil
}

// LoginWithIdentity вход по отсканированной карте руководителя. Удаленная
// карта не пускает. Если справочник недоступен, вход разрешается.
func (m *Manager) LoginWithIdentity(ctx context.Context, info domain.ManagerInfo) error {
	if info.ID == "" {
		return domain.ErrInvalidIdentity.WithDetails("empty manager id")
	}

	if !domain.IsAdminID(info.ID) {
		exists, err := m.directory.Exists(ctx, info.ID)
		switch {
		case err != nil && errors.IsCode(err, errors.ErrUpstreamUnavailable):
			m.logger.Warn("Manager directory unavailable, accepting scanned identity",
				logger.CtxField(ctx),
				logger.String("manager_id", info.ID),
				logger.Error(err),
			)
		case err != nil:
			return err
		case !exists:
			return domain.ErrInvalidIdentity.WithDetails(info.ID)
		}
	}

	info.Permissions = domain.EffectivePermissions(domain.Role(info.Role), info.Permissions)
	return m.establish(ctx, info, false)
}

// LoginWithPassword вход по идентификатору и паролю. Любая ошибка проверки
// означает отказ.
func (m *Manager) LoginWithPassword(ctx context.Context, managerID, password string) error {
	if domain.IsAdminID(managerID) {
		return m.AdminLogin(ctx, password)
	}

	exists, err := m.directory.Exists(ctx, managerID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrInvalidIdentity.WithDetails(managerID)
	}

	info, err := m.directory.VerifyCredentials(ctx, managerID, password)
	if err != nil {
		return err
	}
	info.Permissions = domain.EffectivePermissions(domain.Role(info.Role), info.Permissions)
	return m.establish(ctx, info, false)
}

// AdminLogin локальная проверка пароля администратора без обращения к сети
func (m *Manager) AdminLogin(ctx context.Context, password string) error {
	if password != domain.AdminPassword {
		m.logger.Warn("Invalid admin password", logger.CtxField(ctx))
		return domain.ErrInvalidPassword
	}
	return m.establish(ctx, domain.AdminIdentity(), true)
}

// establish сохраняет идентичность и запускает таймер. При ошибке записи
// в хранилище состояние сессии не меняется.
func (m *Manager) establish(ctx context.Context, info domain.ManagerInfo, isAdmin bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if err := m.persistLocked(info, isAdmin, now); err != nil {
		return err
	}

	m.identity = &info
	m.isAdmin = isAdmin
	m.loggedIn = true
	m.state = StateActive
	m.lastActivity = now
	m.scheduleLocked(m.window)

	m.logger.Info("Logged in",
		logger.CtxField(ctx),
		logger.String("manager_id", info.ID),
		logger.String("role", info.Role),
		logger.Bool("admin", isAdmin),
	)
	return nil
}

// Logout завершает сессию. Повторный вызов ничего не делает.
func (m *Manager) Logout(ctx context.Context) {
	m.endSession(ctx, LogoutManual, 0, false)
}

// endSession очищает состояние; если checkGeneration, то только для таймера
// поколения gen
func (m *Manager) endSession(ctx context.Context, reason LogoutReason, gen uint64, checkGeneration bool) {
	m.mu.Lock()
	if checkGeneration && gen != m.generation {
		m.mu.Unlock()
		return
	}
	wasLoggedIn := m.loggedIn
	var managerID string
	if m.identity != nil {
		managerID = m.identity.ID
	}

	m.stopTimerLocked()
	m.loggedIn = false
	m.isAdmin = false
	m.identity = nil
	m.clearStorageLocked(ctx)
	if reason == LogoutInactivity {
		m.state = StateExpired
	} else {
		m.state = StateLoggedOut
	}
	hooks := append([]func(LogoutReason){}, m.onLogout...)
	m.mu.Unlock()

	if !wasLoggedIn {
		return
	}
	m.logger.Info("Logged out",
		logger.CtxField(ctx),
		logger.String("manager_id", managerID),
		logger.String("reason", string(reason)),
	)
	for _, fn := range hooks {
		fn(reason)
	}
}

// ResetInactivityTimer отмечает действие и перезапускает окно бездействия
func (m *Manager) ResetInactivityTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastActivity = m.clock.Now()
	if !m.loggedIn {
		m.stopTimerLocked()
		return
	}
	if m.state == StateRestored {
		m.state = StateActive
	}
	m.scheduleLocked(m.window)
	if err := m.persistLocked(*m.identity, m.isAdmin, m.lastActivity); err != nil {
		m.logger.Error("Failed to persist session activity", logger.Error(err))
	}
}

// RecordActivity учитывает действие пользователя. Вне сессии и для
// неизвестных сигналов ничего не делает.
func (m *Manager) RecordActivity(signal Signal) bool {
	if !signal.Valid() || !m.IsLoggedIn() {
		return false
	}
	m.ResetInactivityTimer()
	return true
}

// RemainingTime время до автоматического выхода: max(0, окно - прошедшее)
func (m *Manager) RemainingTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remainingLocked()
}

func (m *Manager) remainingLocked() time.Duration {
	if !m.loggedIn {
		return 0
	}
	remaining := m.window - m.clock.Since(m.lastActivity)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Run раз в секунду пересчитывает оставшееся время и завершает сессию при нуле.
// Работает независимо от таймера до отмены ctx.
func (m *Manager) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.tick(ctx)
		}
	}
}

func (m *Manager) tick(ctx context.Context) {
	m.mu.Lock()
	expired := m.loggedIn && m.remainingLocked() == 0
	gen := m.generation
	m.mu.Unlock()

	if expired {
		m.endSession(ctx, LogoutInactivity, gen, true)
	}
}

// HasPermission администратору разрешено все; устаревшие права управления
// руководителями подразумеваются правом manage_managers
func (m *Manager) HasPermission(p domain.Permission) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loggedIn {
		return false
	}
	if m.isAdmin {
		return true
	}
	return domain.HasPermission(m.identity.Permissions, p)
}

// Authorize возвращает ошибку, если сессии нет или право не выдано
func (m *Manager) Authorize(p domain.Permission) error {
	if !m.IsLoggedIn() {
		if m.State() == StateExpired {
			return ErrSessionExpired
		}
		return ErrNotLoggedIn
	}
	if !m.HasPermission(p) {
		return domain.ErrPermissionDenied.WithDetails(string(p))
	}
	return nil
}

// Identity текущая идентичность
func (m *Manager) Identity() (domain.ManagerInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return domain.ManagerInfo{}, false
	}
	info := *m.identity
	info.Permissions = append([]domain.Permission(nil), m.identity.Permissions...)
	return info, true
}

// IsLoggedIn сообщает, активна ли сессия
func (m *Manager) IsLoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loggedIn
}

// IsAdmin сообщает, вошел ли администратор
func (m *Manager) IsAdmin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isAdmin
}

// State текущий этап жизненного цикла
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// UpdatePassword меняет пароль руководителя через справочник
func (m *Manager) UpdatePassword(ctx context.Context, managerID, newPassword string) error {
	if err := m.directory.UpdatePassword(ctx, managerID, newPassword); err != nil {
		m.logger.Warn("Password update failed",
			logger.CtxField(ctx),
			logger.String("manager_id", managerID),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// Close останавливает таймер, не завершая сессию
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimerLocked()
}

func (m *Manager) scheduleLocked(d time.Duration) {
	m.stopTimerLocked()
	gen := m.generation
	m.timer = m.clock.AfterFunc(d, func() {
		m.endSession(context.Background(), LogoutInactivity, gen, true)
	})
}

func (m *Manager) stopTimerLocked() {
	m.generation++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) persistLocked(info domain.ManagerInfo, isAdmin bool, lastActivity time.Time) error {
	data, err := json.Marshal(storedIdentity{ManagerInfo: info, LastActivity: lastActivity.UnixMilli()})
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode session")
	}
	if isAdmin {
		if err := m.storage.Set(AdminAuthKey, "true"); err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to persist session")
		}
	} else if err := m.storage.Remove(AdminAuthKey); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to persist session")
	}
	if err := m.storage.Set(ManagerAuthKey, string(data)); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to persist session")
	}
	return nil
}

func (m *Manager) clearStorageLocked(ctx context.Context) {
	for _, key := range []string{AdminAuthKey, ManagerAuthKey} {
		if err := m.storage.Remove(key); err != nil {
			m.logger.Error("Failed to clear session storage",
				logger.CtxField(ctx),
				logger.String("key", key),
				logger.Error(err),
			)
		}
	}
}
