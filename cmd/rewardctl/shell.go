package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/service"
	"RewardCardPlatform/internal/session"
	"RewardCardPlatform/pkg/errors"
)

const shellHelp = `Parancsok:
  whoami                                  munkamenet adatai
  issue <employee-id> <type> [approver]   kártya kiadása
  redeem <card-id> [approver]             kártya beváltása
  summary                                 összesítő
  logout                                  kijelentkezés
  exit                                    kilépés`

// runShell интерактивный цикл. Каждая строка ввода продлевает сессию;
// выход по бездействию завершает цикл.
func (a *app) runShell(ctx context.Context) error {
	if !a.session.IsLoggedIn() {
		if a.session.State() == session.StateExpired {
			return session.ErrSessionExpired
		}
		return session.ErrNotLoggedIn
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	expired := make(chan struct{})
	var once sync.Once
	a.session.OnLogout(func(reason session.LogoutReason) {
		if reason == session.LogoutInactivity {
			once.Do(func() { close(expired) })
		}
	})
	go a.session.Run(ctx)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		for {
			line, err := a.readLine()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintf(a.out, "rewardctl shell (%s). help: parancsok listája\n", shortDuration(a.session.RemainingTime()))
	for {
		fmt.Fprint(a.out, "> ")
		select {
		case <-ctx.Done():
			return nil
		case <-expired:
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, errors.FromError(session.ErrSessionExpired).GetUserMessage())
			return nil
		case err := <-readErr:
			if err == io.EOF {
				return nil
			}
			return err
		case line := <-lines:
			a.session.RecordActivity(session.SignalKeyDown)
			done, err := a.execShell(ctx, line)
			if err != nil {
				fmt.Fprintf(a.out, "Hiba: %s\n", errors.FromError(err).GetUserMessage())
			}
			if done {
				return nil
			}
		}
	}
}

// execShell выполняет одну строку; true завершает цикл
func (a *app) execShell(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch fields[0] {
	case "help":
		fmt.Fprintln(a.out, shellHelp)
	case "whoami":
		return false, a.printer.whoami(a.whoami())
	case "issue":
		if len(fields) < 3 {
			return false, domain.Validation("usage: issue <employee-id> <type> [approver]")
		}
		card, err := a.issue(ctx, service.IssueRequest{
			EmployeeID: fields[1],
			CardType:   domain.CardType(strings.ToLower(fields[2])),
		}, arg(3))
		if err != nil {
			return false, err
		}
		return false, a.printer.card(card)
	case "redeem":
		if len(fields) < 2 {
			return false, domain.Validation("usage: redeem <card-id> [approver]")
		}
		card, err := a.redeem(ctx, fields[1], arg(2))
		if err != nil {
			return false, err
		}
		return false, a.printer.card(card)
	case "summary":
		if err := a.session.Authorize(domain.PermIssueRewards); err != nil {
			return false, err
		}
		s, err := a.api.Summary(ctx)
		if err != nil {
			return false, err
		}
		return false, a.printer.summary(s)
	case "logout":
		a.session.Logout(ctx)
		a.printer.message("Sikeres kijelentkezés")
		return true, nil
	case "exit", "quit":
		return true, nil
	default:
		return false, domain.Validation("unknown command: " + fields[0])
	}
	return false, nil
}
