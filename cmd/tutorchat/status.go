package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/ashureev/tutor-chat/internal/apiclient"
	"github.com/ashureev/tutor-chat/internal/chat"
	"github.com/ashureev/tutor-chat/internal/config"
	"github.com/ashureev/tutor-chat/internal/domain"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStatusCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend health and agent status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := *cfg
			client := apiclient.New(c.APIBaseURL,
				apiclient.WithHealthTimeout(c.HealthTimeout),
				apiclient.WithLogger(slog.Default()),
			)
			return printStatus(cmd.Context(), client, os.Stdout)
		},
	}
}

type statusClient interface {
	Health(ctx context.Context) (*domain.HealthResponse, error)
	AgentsStatus(ctx context.Context) (map[string]domain.AgentStatus, error)
}

func printStatus(ctx context.Context, client statusClient, out io.Writer) error {
	online := color.New(color.FgGreen).SprintFunc()
	offline := color.New(color.FgRed).SprintFunc()

	health, err := client.Health(ctx)
	if err == nil && health == nil {
		err = fmt.Errorf("%w: empty response", apiclient.ErrHealthCheckFailed)
	}
	if err != nil || !health.IsHealthy() {
		_, _ = fmt.Fprintf(out, "%s\n", offline("● System Offline"))
		if err != nil {
			slog.Debug("Health check failed", "error", err)
			return err
		}
		return fmt.Errorf("backend status %q", health.Status)
	}
	_, _ = fmt.Fprintf(out, "%s\n", online("● System Online"))
	if health.Message != "" {
		_, _ = fmt.Fprintf(out, "  %s\n", health.Message)
	}

	agents, err := client.AgentsStatus(ctx)
	if err != nil {
		slog.Warn("Failed to fetch agent status", "error", err)
		return nil
	}
	keys := make([]string, 0, len(agents))
	for k := range agents {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		a := agents[k]
		_, _ = fmt.Fprintf(out, "  %-24s %-10s port %d\n", chat.DisplayName(k), a.Status, a.Port)
	}
	return nil
}
