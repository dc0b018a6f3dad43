package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/jonboulle/clockwork"

	"RewardCardPlatform/internal/client"
	"RewardCardPlatform/internal/domain"
	handler "RewardCardPlatform/internal/handler/http"
	"RewardCardPlatform/internal/service"
	"RewardCardPlatform/internal/session"
	"RewardCardPlatform/pkg/logger"
)

// app связывает клиент API с локальной сессией
type app struct {
	api     *client.Client
	session *session.Manager
	clock   clockwork.Clock
	logger  logger.Logger
	out     io.Writer
	in      *bufio.Reader
	printer *printer
}

func newApp(api *client.Client, storage session.Storage, clock clockwork.Clock, log logger.Logger, out io.Writer, in io.Reader, format string) *app {
	return &app{
		api:     api,
		session: session.NewManager(api, storage, clock, log),
		clock:   clock,
		logger:  log,
		out:     out,
		in:      bufio.NewReader(in),
		printer: newPrinter(out, format),
	}
}

// start поднимает сохраненную сессию и отмечает вызов как действие пользователя
func (a *app) start(ctx context.Context) error {
	if err := a.session.Restore(ctx); err != nil {
		return err
	}
	a.session.RecordActivity(session.SignalKeyDown)
	return nil
}

func (a *app) close() {
	a.session.Close()
}

// loginWithCard вход по содержимому QR-кода карты руководителя. JSON-пейлоад
// с ролью достаточен сам по себе, голый идентификатор разрешается сервером.
func (a *app) loginWithCard(ctx context.Context, raw string) error {
	payload, err := domain.ParsePayload(raw)
	if err != nil {
		return err
	}

	info := domain.ManagerInfo{
		ID:          payload.ID,
		Name:        payload.Name,
		Role:        payload.Role,
		Permissions: payload.Permissions,
	}
	if payload.Role == "" {
		result, err := a.api.Scan(ctx, payload.ID)
		if err != nil {
			return err
		}
		if result.Kind != handler.ScanKindManager {
			return domain.ErrInvalidIdentity.WithDetails("scanned card is not a manager card")
		}
		info = result.Manager.Info()
	}
	return a.session.LoginWithIdentity(ctx, info)
}

// resolveApprover строит одобряющего по отсканированной карте руководителя
func (a *app) resolveApprover(ctx context.Context, raw string) (domain.Approver, error) {
	payload, err := domain.ParsePayload(raw)
	if err != nil {
		return domain.Approver{}, err
	}
	if domain.IsAdminID(payload.ID) {
		return domain.Approver{}, domain.ErrInvalidApprover.WithDetails("admin approves by logging in")
	}
	if payload.Name != "" && payload.Role != "" {
		return domain.Approver{ID: payload.ID, Name: payload.Name, Role: payload.Role}, nil
	}

	result, err := a.api.Scan(ctx, payload.ID)
	if err != nil {
		return domain.Approver{}, err
	}
	if result.Kind != handler.ScanKindManager {
		return domain.Approver{}, domain.ErrInvalidApprover.WithDetails(payload.ID)
	}
	return domain.ApproverFromInfo(result.Manager.Info()), nil
}

// issue выдает карту. Без отсканированного одобряющего администратор
// одобряет сам.
func (a *app) issue(ctx context.Context, req service.IssueRequest, approverPayload string) (*domain.RewardCard, error) {
	if err := a.session.Authorize(domain.PermIssueRewards); err != nil {
		return nil, err
	}
	switch {
	case approverPayload != "":
		approver, err := a.resolveApprover(ctx, approverPayload)
		if err != nil {
			return nil, err
		}
		req.Approver = approver
	case a.session.IsAdmin():
		req.Approver = domain.AdminApprover()
	}
	return a.api.Issue(ctx, req)
}

// redeem погашает карту: администратор напрямую, остальные только с
// отсканированной картой Műszakvezető
func (a *app) redeem(ctx context.Context, cardID, approverPayload string) (*domain.RewardCard, error) {
	if err := a.session.Authorize(domain.PermRedeemRewards); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cardID) == "" {
		return nil, domain.Validation("card id is required")
	}

	var approver domain.Approver
	switch {
	case approverPayload != "":
		resolved, err := a.resolveApprover(ctx, approverPayload)
		if err != nil {
			return nil, err
		}
		approver = resolved
	case a.session.IsAdmin():
		approver = domain.AdminApprover()
	default:
		return nil, domain.ErrApprovalRequired
	}
	return a.api.Redeem(ctx, cardID, approver)
}

// changePassword меняет пароль руководителя. Свой пароль можно менять
// всегда, чужой только с правом change_manager_passwords.
func (a *app) changePassword(ctx context.Context, managerID, newPassword string) error {
	identity, ok := a.session.Identity()
	if !ok {
		return a.session.Authorize(domain.PermChangeManagerPasswords)
	}
	if managerID == "" {
		managerID = identity.ID
	}
	if domain.IsAdminID(managerID) {
		return domain.ErrPermissionDenied.WithDetails("admin password is fixed")
	}
	if managerID != identity.ID {
		if err := a.session.Authorize(domain.PermChangeManagerPasswords); err != nil {
			return err
		}
	}
	return a.session.UpdatePassword(ctx, managerID, newPassword)
}

// whoamiView состояние сессии для вывода
type whoamiView struct {
	State       session.State       `json:"state" yaml:"state"`
	LoggedIn    bool                `json:"loggedIn" yaml:"logged_in"`
	Admin       bool                `json:"admin" yaml:"admin"`
	ID          string              `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string              `json:"name,omitempty" yaml:"name,omitempty"`
	Role        string              `json:"role,omitempty" yaml:"role,omitempty"`
	Permissions []domain.Permission `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Remaining   string              `json:"remaining" yaml:"remaining"`
}

func (a *app) whoami() whoamiView {
	view := whoamiView{
		State:     a.session.State(),
		LoggedIn:  a.session.IsLoggedIn(),
		Admin:     a.session.IsAdmin(),
		Remaining: shortDuration(a.session.RemainingTime()),
	}
	if info, ok := a.session.Identity(); ok {
		view.ID = info.ID
		view.Name = info.Name
		view.Role = info.Role
		view.Permissions = info.Permissions
	}
	return view
}

// readLine читает строку ввода без перевода строки
func (a *app) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
