package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/patheras/prometheus-core/internal/laneq"
	"github.com/patheras/prometheus-core/internal/runtime"
	"github.com/patheras/prometheus-core/internal/store"
)

// createAskCommand creates the "ask" command: a one-shot Runtime Dispatcher
// call, run on the "runtime" lane so it shares the same concurrency cap a
// long-running agent process would apply, with the exchange persisted to a
// conversation the way a live session would.
func (c *CLI) createAskCommand() *cobra.Command {
	var (
		taskType       string
		conversationID string
		forceModel     string
	)

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Dispatch a one-shot prompt through the runtime fallback chain",
		Long:  "ask resolves a model for the given task type, runs it through the fallback chain against the configured providers, and records both turns in a conversation.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")

			cfg, err := c.loadConfig()
			if err != nil {
				return c.handleError(err)
			}
			s, err := openStore(cfg)
			if err != nil {
				return c.handleError(err)
			}
			defer s.Close()

			engine, err := openEngine(cfg, s)
			if err != nil {
				return c.handleError(err)
			}

			provider := c.viper.GetString("provider")
			if provider == "" {
				provider = "anthropic"
			}
			dispatcher := openDispatcher(cfg, provider)
			queue := openQueue(cfg)

			if conversationID == "" {
				conversationID, err = engine.CreateConversation(cmd.Context(), "ask: "+truncate(prompt, 40))
				if err != nil {
					return c.handleError(err)
				}
			}
			if _, err := engine.StoreMessage(cmd.Context(), conversationID, store.RoleUser, prompt, nil); err != nil {
				return c.handleError(err)
			}

			type dispatchResult struct {
				resp     runtime.Response
				attempts []runtime.AttemptRecord
			}
			future := queue.Enqueue(cmd.Context(), "runtime", func(ctx context.Context) (interface{}, error) {
				resp, attempts, err := dispatcher.Execute(ctx, taskType, runtime.Request{
					TaskType: taskType,
					Prompt:   prompt,
				}, runtime.SelectOptions{ForceModel: forceModel}, runtime.DefaultFallbackOptions(cfg.Runtime))
				return dispatchResult{resp: resp, attempts: attempts}, err
			}, laneq.EnqueueOptions{})

			raw, err := future.Wait(cmd.Context())
			if err != nil {
				return c.handleError(err)
			}
			result := raw.(dispatchResult)

			if _, err := engine.StoreMessage(cmd.Context(), conversationID, store.RoleAssistant, result.resp.Content, nil); err != nil {
				return c.handleError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "conversation: %s\n", conversationID)
			fmt.Fprintf(cmd.OutOrStdout(), "model: %s  attempts: %d  latency: %s\n",
				result.resp.Model, len(result.attempts), result.resp.Latency.Round(time.Millisecond))
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), result.resp.Content)
			return nil
		},
	}

	cmd.Flags().StringVar(&taskType, "task-type", "code_generation", "task type used for model preference resolution")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "existing conversation id to append to (default: new conversation)")
	cmd.Flags().StringVar(&forceModel, "model", "", "force a specific provider/model, bypassing preferences")

	return cmd
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
