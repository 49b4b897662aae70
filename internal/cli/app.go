package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaiso/surveyqc/internal/config"
	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/engine"
	"github.com/shaiso/surveyqc/internal/rules"
	"github.com/shaiso/surveyqc/internal/telemetry"
)

// ErrInvariantViolation — очищенная таблица нарушает инварианты.
var ErrInvariantViolation = errors.New("cleaned table violates invariants")

// App — зависимости команды, собранные после разбора флагов.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Out    *Output
}

// AppFunc лениво создаёт App для выполняемой команды.
type AppFunc func(cmd *cobra.Command) (*App, error)

// newAppFunc собирает конфигурацию из viper и настраивает логгер.
func newAppFunc(v *viper.Viper, configFile *string, jsonOutput *bool) AppFunc {
	return func(cmd *cobra.Command) (*App, error) {
		cfg, err := config.Load(v, *configFile)
		if err != nil {
			return nil, err
		}

		logger := telemetry.SetupLogger(telemetry.LogConfig{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cmd.ErrOrStderr(),
		})

		return &App{
			Config: cfg,
			Logger: logger,
			Out:    NewOutput(*jsonOutput, cmd.OutOrStdout(), cmd.ErrOrStderr()),
		}, nil
	}
}

// Rules загружает словарь видов: файл clean.rules или встроенный.
func (a *App) Rules() (*rules.Rules, error) {
	if a.Config.Clean.Rules == "" {
		return rules.Default(), nil
	}
	r, err := rules.Load(a.Config.Clean.Rules)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return r, nil
}

// Plan загружает план очистки: файл clean.plan или встроенный.
func (a *App) Plan() (*domain.Plan, error) {
	if a.Config.Clean.Plan == "" {
		return engine.DefaultPlan(), nil
	}
	p, err := engine.LoadPlan(a.Config.Clean.Plan)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", a.Config.Clean.Plan, err)
	}
	return p, nil
}
