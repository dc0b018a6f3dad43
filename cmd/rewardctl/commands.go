package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/service"
)

// appGetter возвращает приложение, собранное в PersistentPreRunE
type appGetter func() *app

func newLoginCmd(get appGetter) *cobra.Command {
	var (
		card        string
		id          string
		askPassword bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Bejelentkezés vezetői kártyával vagy jelszóval",
		Long: `Вход руководителя.

--card принимает содержимое отсканированного QR-кода карты руководителя.
--id с --password запрашивает пароль; идентификатор admin входит локально.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			ctx := cmd.Context()
			var err error
			switch {
			case card != "":
				err = a.loginWithCard(ctx, card)
			case id != "" && askPassword:
				var pw string
				pw, err = a.promptPassword(cmd, "Jelszó: ")
				if err == nil {
					err = a.session.LoginWithPassword(ctx, id, pw)
				}
			default:
				return fmt.Errorf("login: either --card or --id with --password is required")
			}
			if err != nil {
				return handleError(cmd, a.logger, err)
			}
			return a.printer.whoami(a.whoami())
		},
	}
	cmd.Flags().StringVar(&card, "card", "", "scanned manager card payload")
	cmd.Flags().StringVar(&id, "id", "", "manager card id")
	cmd.Flags().BoolVar(&askPassword, "password", false, "prompt for password")
	cmd.MarkFlagsMutuallyExclusive("card", "id")
	return cmd
}

func newAdminLoginCmd(get appGetter) *cobra.Command {
	return &cobra.Command{
		Use:   "admin-login",
		Short: "Adminisztrátori bejelentkezés",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			pw, err := a.promptPassword(cmd, "Admin jelszó: ")
			if err == nil {
				err = a.session.AdminLogin(cmd.Context(), pw)
			}
			if err != nil {
				return handleError(cmd, a.logger, err)
			}
			return a.printer.whoami(a.whoami())
		},
	}
}

func newLogoutCmd(get appGetter) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Kijelentkezés",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			a.session.Logout(cmd.Context())
			a.printer.message("Sikeres kijelentkezés")
			return nil
		},
	}
}

func newWhoamiCmd(get appGetter) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Aktuális munkamenet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			return a.printer.whoami(a.whoami())
		},
	}
}

func newPasswordCmd(get appGetter) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Jelszó módosítása",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			pw, err := a.promptPassword(cmd, "Új jelszó: ")
			if err == nil {
				err = a.changePassword(cmd.Context(), id, pw)
			}
			if err != nil {
				return handleError(cmd, a.logger, err)
			}
			a.printer.message("Jelszó módosítva")
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "manager card id (default is the logged in manager)")
	return cmd
}

func newIssueCmd(get appGetter) *cobra.Command {
	var (
		req      service.IssueRequest
		cardType string
		approver string
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Jutalomkártya kiadása",
		Long: `Выдает карту поощрения сотруднику. Для gold и platinum нужна
отсканированная карта руководителя (--approver) или вход администратора.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			req.CardType = domain.CardType(strings.ToLower(cardType))
			card, err := a.issue(cmd.Context(), req, approver)
			if err != nil {
				return handleError(cmd, a.logger, err)
			}
			return a.printer.card(card)
		},
	}
	cmd.Flags().StringVar(&req.EmployeeID, "employee", "", "employee id")
	cmd.Flags().StringVar(&cardType, "type", string(domain.CardBasic), "card type (basic, gold, platinum)")
	cmd.Flags().StringVar(&req.CardID, "card-id", "", "card id (generated when empty)")
	cmd.Flags().StringVar(&approver, "approver", "", "scanned approver card payload")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}

func newRedeemCmd(get appGetter) *cobra.Command {
	var approver string
	cmd := &cobra.Command{
		Use:   "redeem <card-id>",
		Short: "Jutalomkártya beváltása",
		Long: `Погашает карту. Администратор погашает напрямую, остальным нужна
отсканированная карта Műszakvezető (--approver).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			card, err := a.redeem(cmd.Context(), args[0], approver)
			if err != nil {
				return handleError(cmd, a.logger, err)
			}
			return a.printer.card(card)
		},
	}
	cmd.Flags().StringVar(&approver, "approver", "", "scanned approver card payload")
	return cmd
}

func newSummaryCmd(get appGetter) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Összesítő",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := a.session.Authorize(domain.PermIssueRewards); err != nil {
				return handleError(cmd, a.logger, err)
			}
			s, err := a.api.Summary(cmd.Context())
			if err != nil {
				return handleError(cmd, a.logger, err)
			}
			return a.printer.summary(s)
		},
	}
}

func newShellCmd(get appGetter) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interaktív munkamenet",
		Long: `Интерактивная сессия. Каждая введенная строка считается действием
пользователя; после 3 минут бездействия сессия завершается.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := a.runShell(cmd.Context()); err != nil {
				return handleError(cmd, a.logger, err)
			}
			return nil
		},
	}
}

// promptPassword читает пароль без эха с терминала либо строкой из ввода
func (a *app) promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return a.readLine()
}
