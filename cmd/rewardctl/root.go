package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"RewardCardPlatform/internal/client"
	"RewardCardPlatform/internal/session"
	"RewardCardPlatform/pkg/errors"
	"RewardCardPlatform/pkg/logger"
)

// Ключи конфигурации CLI
const (
	keyServer   = "server"
	keyStateDir = "state_dir"
	keyTimeout  = "timeout"
	keyOutput   = "output"
	keyDebug    = "debug"
)

// appFactory собирает приложение перед выполнением команды
type appFactory func(cmd *cobra.Command) (*app, error)

// newRootCmd собирает дерево команд; приложение создается в PersistentPreRunE
func newRootCmd(build appFactory) *cobra.Command {
	var a *app

	root := &cobra.Command{
		Use:   "rewardctl",
		Short: "rewardctl - kezelőfelület a jutalomkártya rendszerhez",
		Long: `rewardctl - командная строка администратора карт поощрения.

Вход по карте руководителя или паролю, выдача и погашение карт.
Сессия завершается после 3 минут бездействия.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			built, err := build(cmd)
			if err != nil {
				return err
			}
			a = built
			return a.start(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a != nil {
				a.close()
			}
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.rewardctl.yaml)")
	root.PersistentFlags().StringP(keyServer, "s", "http://localhost:8080", "server URL")
	root.PersistentFlags().String(keyStateDir, "", "session state directory (default is $HOME/.rewardctl)")
	root.PersistentFlags().Duration(keyTimeout, client.DefaultTimeout, "request timeout")
	root.PersistentFlags().StringP(keyOutput, "o", outputText, "output format (text, json, yaml)")
	root.PersistentFlags().Bool(keyDebug, false, "debug logging")

	for _, key := range []string{keyServer, keyStateDir, keyTimeout, keyOutput, keyDebug} {
		_ = viper.BindPFlag(key, root.PersistentFlags().Lookup(key))
	}

	current := func() *app { return a }
	root.AddCommand(
		newLoginCmd(current),
		newAdminLoginCmd(current),
		newLogoutCmd(current),
		newWhoamiCmd(current),
		newPasswordCmd(current),
		newIssueCmd(current),
		newRedeemCmd(current),
		newSummaryCmd(current),
		newShellCmd(current),
	)
	return root
}

func newAppFromConfig(cmd *cobra.Command) (*app, error) {
	if err := initConfig(cmd); err != nil {
		return nil, err
	}

	log := logger.NewNop()
	if viper.GetBool(keyDebug) {
		var err error
		log, err = logger.NewLogger("dev", "debug", "console", "rewardctl")
		if err != nil {
			return nil, err
		}
	}

	storage, err := session.NewFileStorage(viper.GetString(keyStateDir))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to open session storage")
	}

	timeout := viper.GetDuration(keyTimeout)
	if timeout <= 0 {
		timeout = client.DefaultTimeout
	}
	api := client.New(viper.GetString(keyServer), timeout, log)
	clock := clockwork.NewRealClock()

	return newApp(api, storage, clock, log, cmd.OutOrStdout(), cmd.InOrStdin(), viper.GetString(keyOutput)), nil
}

// initConfig читает файл конфигурации и переменные окружения REWARDCTL_*
func initConfig(cmd *cobra.Command) error {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rewardctl")
	}

	viper.SetEnvPrefix("REWARDCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) && !stderrors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read config %s: %w", filepath.Base(viper.ConfigFileUsed()), err)
		}
	}
	return nil
}

// handleError приводит ошибку команды к сообщению для пользователя
func handleError(cmd *cobra.Command, log logger.Logger, err error) error {
	if err == nil {
		return nil
	}
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.New(errors.ErrInternal, err.Error())
	}
	log.Error("Command failed",
		logger.String("command", cmd.Name()),
		logger.Error(err),
	)
	return fmt.Errorf("%s: %s", cmd.Name(), appErr.GetUserMessage())
}

// shortDuration форматирует оставшееся время как m:ss
func shortDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
