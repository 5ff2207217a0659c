package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bnema/agent-network/internal/application"
	"github.com/spf13/cobra"
)

type hookFunc func(*application.HookService, context.Context, application.HookInput) (*application.HookOutput, error)

func newHookCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Host lifecycle hooks (read a JSON payload on stdin)",
		Long:  "hook commands are invoked by the agent host. They never fail: problems are logged and the host continues without mailbox context.",
	}

	cmd.AddCommand(
		newHookRunCmd(app, "session-start", "Register a new host session", true, (*application.HookService).SessionStart),
		newHookRunCmd(app, "pre-tool-use", "Inject pending messages before a tool call", false, (*application.HookService).PreToolUse),
		newHookRunCmd(app, "stop", "Keep the session alive while mail is pending", false, (*application.HookService).Stop),
	)

	return cmd
}

func newHookRunCmd(app *app, use, short string, createStore bool, run hookFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := runHook(cmd.Context(), app, cmd.InOrStdin(), createStore, run)
			if err != nil {
				app.logger.Debug().Err(err).Str("hook", use).Msg("hook skipped")
				return nil
			}
			if out == nil {
				return nil
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
		},
	}
}

func runHook(ctx context.Context, app *app, stdin io.Reader, createStore bool, run hookFunc) (*application.HookOutput, error) {
	if !createStore && !app.databaseExists() {
		return nil, nil
	}

	var input application.HookInput
	if err := json.NewDecoder(stdin).Decode(&input); err != nil {
		return nil, fmt.Errorf("decode hook payload: %w", err)
	}

	if err := app.open(ctx); err != nil {
		return nil, err
	}

	hooks := app.hooks(application.HookConfig{
		EnvFile:   os.Getenv("CLAUDE_ENV_FILE"),
		ParentPID: os.Getppid(),
	})
	return run(hooks, ctx, input)
}
