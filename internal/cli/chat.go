package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/soyeahso/llmbridge/internal/hooks"
	"github.com/soyeahso/llmbridge/internal/llm"
	"github.com/soyeahso/llmbridge/internal/provider"
	"github.com/soyeahso/llmbridge/internal/store"
	"github.com/soyeahso/llmbridge/internal/tools"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		providerName   string
		model          string
		conversationID string
		system         string
		noTools        bool
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with a model; with a message argument, answer once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if providerName != "" {
				cfg.Provider = strings.ToLower(providerName)
			}
			if model != "" {
				cfg.Model = model
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			convs := store.NewConversationStore(db)
			conv, err := openConversation(convs, conversationID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			deps := provider.Deps{Session: llm.NewSessionUsage()}
			if cfg.Usage.TrackingEnabled() {
				usage, err := openUsage(ctx, db)
				if err != nil {
					return err
				}
				defer usage.Close()
				deps.Recorder = usage
				if sb, ok := usage.(sqliteBackend); ok {
					deps.Recorder = sb.ForConversation(conv.ID)
				}
			}
			if !noTools {
				deps.Tools = tools.Builtin()
			}
			deps.Hooks = hooks.NewManager(log)
			deps.Hooks.On(hooks.EventModelFallback, "chat", func(_ context.Context, p hooks.Payload) error {
				fmt.Fprintf(cmd.ErrOrStderr(), "[fallback %v -> %v: %v]\n", p.Data["from"], p.Data["to"], p.Data["error"])
				return nil
			})

			orch, err := provider.New(cfg, deps, log)
			if err != nil {
				return err
			}
			if conv.Model != "" && conversationID != "" && model == "" {
				orch.Models().SetModel(conv.Model)
			}

			s := &chatSession{
				orch:      orch,
				convs:     convs,
				conv:      conv,
				maxRounds: cfg.Conversation.MaxToolRounds,
				out:       cmd.OutOrStdout(),
				status:    cmd.ErrOrStderr(),
			}
			if conv.Messages == 0 {
				prompt := systemPrompt(time.Now(), deps.Tools, system)
				if err := convs.Append(conv.ID, llm.SystemMessage(prompt)); err != nil {
					return err
				}
			}

			if len(args) > 0 {
				return s.turn(ctx, strings.Join(args, " "))
			}
			fmt.Fprintf(s.status, "conversation %s with %s/%s (/help for commands)\n",
				conv.ID, orch.Provider(), orch.Models().CurrentModel())
			return s.repl(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "", "provider to use (bedrock, anthropic, mistral, ollama)")
	cmd.Flags().StringVar(&model, "model", "", "model id to start with")
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "resume a stored conversation")
	cmd.Flags().StringVar(&system, "system", "", "system prompt for a new conversation")
	cmd.Flags().BoolVar(&noTools, "no-tools", false, "do not offer built-in tools")

	return cmd
}

func openConversation(convs *store.ConversationStore, id, firstMessage string) (*store.Conversation, error) {
	if id != "" {
		return convs.Get(id)
	}
	title := firstMessage
	if len(title) > 60 {
		title = title[:60]
	}
	return convs.Create(title, cfg.Provider, "")
}

// chatSession runs turns of one stored conversation.
type chatSession struct {
	orch      *llm.Orchestrator
	convs     *store.ConversationStore
	conv      *store.Conversation
	maxRounds int
	out       io.Writer
	status    io.Writer
}

// turn appends the user message and invokes the model over the stored,
// windowed history until it answers without tool calls.
func (s *chatSession) turn(ctx context.Context, text string) error {
	if err := s.convs.Append(s.conv.ID, llm.UserMessage(text)); err != nil {
		return err
	}
	s.orch.SetMessageStore(s.convs.View(s.conv.ID))

	for round := 0; ; round++ {
		res, err := s.orch.InvokeStore(ctx)
		if err != nil {
			return err
		}
		if err := s.convs.Append(s.conv.ID, llm.AssistantMessage(res)); err != nil {
			return err
		}
		if err := s.convs.SetModel(s.conv.ID, res.Model); err != nil {
			return err
		}

		if !res.WantsTools() {
			fmt.Fprintln(s.out, res.Content)
			s.printUsage(res)
			return nil
		}
		if round >= s.maxRounds {
			return fmt.Errorf("%w: stopped after %d", llm.ErrToolRounds, s.maxRounds)
		}

		if res.Content != "" {
			fmt.Fprintln(s.out, res.Content)
		}
		results := s.orch.ProcessToolCalls(ctx, res.ToolCalls)
		msgs := make([]llm.Message, 0, len(results))
		for _, r := range results {
			fmt.Fprintf(s.status, "[tool %s] %s\n", r.Name, truncate(r.Text(), 120))
			msgs = append(msgs, llm.ToolMessage(r))
		}
		if err := s.convs.Append(s.conv.ID, msgs...); err != nil {
			return err
		}
	}
}

func (s *chatSession) printUsage(res *llm.Result) {
	if res.Usage == nil {
		return
	}
	cost := ""
	if res.Cost != nil {
		cost = " cost=$" + res.Cost.TotalCost
	}
	fmt.Fprintf(s.status, "[model=%s tokens=%d+%d%s]\n", res.Model, res.Usage.Input, res.Usage.Output, cost)
}

func (s *chatSession) repl(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.status, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.status)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if done := s.command(line); done {
				return nil
			}
			continue
		}
		if err := s.turn(ctx, line); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(s.status, "error: %v\n", err)
		}
	}
}

// command handles a slash command and reports whether the session ends.
func (s *chatSession) command(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	models := s.orch.Models()
	switch name {
	case "/exit", "/quit":
		return true
	case "/model":
		if arg == "" {
			fmt.Fprintf(s.status, "model: %s (%s)\n", models.CurrentModel(), models.State())
			return false
		}
		if !models.SetModel(strings.TrimSpace(arg)) {
			fmt.Fprintf(s.status, "unknown model %q\n", arg)
		}
	case "/models":
		for _, m := range models.AvailableModels() {
			fmt.Fprintf(s.status, "  %s\n", m.ID)
		}
	case "/restart":
		models.Restart()
		fmt.Fprintf(s.status, "model: %s\n", models.CurrentModel())
	case "/usage":
		u := s.orch.Usage()
		fmt.Fprintf(s.status, "this session: %d in, %d out; all sessions: %d in, %d out\n",
			u.Instance().Input, u.Instance().Output, u.Session().Input, u.Session().Output)
	case "/help":
		fmt.Fprintln(s.status, "/model [id]  /models  /restart  /usage  /exit")
	default:
		fmt.Fprintf(s.status, "unknown command %s\n", name)
	}
	return false
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
