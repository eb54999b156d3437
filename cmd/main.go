package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/cmd/launcher"
	"google.golang.org/adk/cmd/launcher/full"
	"google.golang.org/adk/tool"

	"github.com/vitormoschetta/anyflix-support/internal/config"
	"github.com/vitormoschetta/anyflix-support/internal/gateway"
	"github.com/vitormoschetta/anyflix-support/internal/handler"
	"github.com/vitormoschetta/anyflix-support/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "anyflix-support",
		Short:         "Anyflix customer support chat bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve, newConsoleCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP chat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Criar servidor
			srv, err := server.NewServer(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			// Criar handlers
			h := handler.NewHandler(srv.Chat, srv.Tools, handler.Info{
				AgentName: "anyflix_support_agent",
				BaseURL:   baseURL(cfg.HTTPAddr),
			}, logger)

			// Configurar rotas com os handlers
			srv.SetupRouter(h.HandleRoot, h.HandleHealth, h.HandleChat, h.HandleTools)

			// Iniciar servidor
			return srv.Start(ctx)
		},
	}
}

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "console [launcher args]",
		Short:              "Chat with the support agent in the terminal using the ADK launcher",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			components, err := gateway.NewComponents(ctx, gateway.ModelOptions{
				APIKey:        cfg.GoogleAPIKey,
				ModelName:     cfg.ModelName,
				McpEndpoint:   cfg.McpEndpoint,
				McpAuthHeader: cfg.McpAuthHeader,
				McpAuthToken:  cfg.McpAuthToken,
			}, logger)
			if err != nil {
				return err
			}

			assistant, err := gateway.NewADKAssistant(gateway.Config{
				AppName:     cfg.AppName,
				UserID:      cfg.UserID,
				Instruction: gateway.DefaultInstruction,
				Model:       components.Model,
				Toolsets:    []tool.Toolset{components.Toolset},
				Logger:      logger,
			})
			if err != nil {
				return err
			}

			launcherCfg := &launcher.Config{
				AgentLoader: agent.NewSingleLoader(assistant.Agent()),
			}
			l := full.NewLauncher()
			if err := l.Execute(ctx, launcherCfg, args); err != nil {
				return fmt.Errorf("run failed: %w\n\n%s", err, l.CommandLineSyntax())
			}
			return nil
		},
	}
}

func loadConfig() (config.Config, zerolog.Logger, error) {
	envErr := godotenv.Load()

	cfg, err := config.FromEnv()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if envErr != nil {
		logger.Warn().Msg(".env file not found or could not be loaded")
	}
	if err != nil {
		return cfg, logger, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logger, nil
}

func newLogger(level, format string, out io.Writer) zerolog.Logger {
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func baseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
