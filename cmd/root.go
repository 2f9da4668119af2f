package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/klemjul/studybuddy/internal/app"
	"github.com/klemjul/studybuddy/internal/completion"
	"github.com/klemjul/studybuddy/internal/config"
	"github.com/klemjul/studybuddy/internal/conversation"
	"github.com/klemjul/studybuddy/internal/llm"
	"github.com/klemjul/studybuddy/internal/logging"
	"github.com/klemjul/studybuddy/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func RootCommand(app app.App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "studybuddy [question...]",
		Short: "Chat with Study Buddy, an AI learning companion, in the command line.",
		Args:  cobra.ArbitraryArgs,
		Example: `
studybuddy   # Open the chat
studybuddy what is photosynthesis   # Ask one question, stream the answer
studybuddy --stream=false explain derivatives   # Ask one question, render the answer as markdown
studybuddy --provider anthropic --model claude-3-5-haiku-latest   # Chat with another provider
	`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, app)
		},
		PreRunE: validate,
	}

	rootCmd.Flags().SortFlags = false

	rootCmd.Flags().StringP("prompt", "p", "",
		fmt.Sprintf(
			`Overrides the Study Buddy system instructions. (env: %s)
- If <value> is a string, it will be used directly as the instructions.
- If <value> is a number, it will look for the environment variable %s_<number> instead.
`, config.GetEnvWithPrefix(config.ENV_PROMPT), config.GetEnvWithPrefix(config.ENV_PROMPT)))
	rootCmd.Flags().String("provider", config.DEFAULT_PROVIDER,
		fmt.Sprintf("LLM provider to use, one of %v. (env: %s)", llm.LLMProviders, config.GetEnvWithPrefix(config.ENV_PROVIDER)))
	rootCmd.Flags().String("model", "",
		fmt.Sprintf("LLM model to use, defaults to the provider's default model (%s for %s). (env: %s)",
			llm.DEFAULT_MODEL, config.DEFAULT_PROVIDER, config.GetEnvWithPrefix(config.ENV_MODEL)))
	rootCmd.Flags().Float64("temperature", llm.DEFAULT_TEMPERATURE,
		fmt.Sprintf("Sampling temperature between 0 and 1. (env: %s)", config.GetEnvWithPrefix(config.ENV_TEMPERATURE)))
	rootCmd.Flags().Int("max-tokens", llm.DEFAULT_MAX_TOKENS,
		fmt.Sprintf("Maximum number of tokens in a reply. (env: %s)", config.GetEnvWithPrefix(config.ENV_MAX_TOKENS)))
	rootCmd.Flags().Bool("stream", true,
		fmt.Sprintf("Stream the reply of a one-shot question as it is generated. (env: %s)", config.GetEnvWithPrefix(config.ENV_STREAM)))
	rootCmd.Flags().String("log-file", "",
		fmt.Sprintf("Write debug logs to this file. (env: %s)", config.GetEnvWithPrefix(config.ENV_LOG_FILE)))

	viper.BindPFlag(config.ENV_PROMPT, rootCmd.Flags().Lookup("prompt"))
	viper.BindPFlag(config.ENV_PROVIDER, rootCmd.Flags().Lookup("provider"))
	viper.BindPFlag(config.ENV_MODEL, rootCmd.Flags().Lookup("model"))
	viper.BindPFlag(config.ENV_TEMPERATURE, rootCmd.Flags().Lookup("temperature"))
	viper.BindPFlag(config.ENV_MAX_TOKENS, rootCmd.Flags().Lookup("max-tokens"))
	viper.BindPFlag(config.ENV_STREAM, rootCmd.Flags().Lookup("stream"))
	viper.BindPFlag(config.ENV_LOG_FILE, rootCmd.Flags().Lookup("log-file"))

	viper.SetEnvPrefix(config.ENV_PREFIX)
	viper.AutomaticEnv()

	return rootCmd
}

func validate(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(config.DEFAULT_DOTENV_FILE); err != nil {
		return err
	}

	provider := viper.GetString(config.ENV_PROVIDER)
	if !slices.Contains(llm.LLMProviders, llm.LLMProvider(provider)) {
		return fmt.Errorf("invalid provider '%s'. Valid providers are: %v", provider, llm.LLMProviders)
	}

	model := resolveModel(llm.LLMProvider(provider))
	if model == "" {
		return fmt.Errorf("model must be specified for provider '%s'", provider)
	}

	temperature := viper.GetFloat64(config.ENV_TEMPERATURE)
	if temperature < 0 || temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1, got %v", temperature)
	}

	maxTokens := viper.GetInt(config.ENV_MAX_TOKENS)
	if maxTokens <= 0 {
		return fmt.Errorf("max tokens must be greater than 0, got %d", maxTokens)
	}

	return nil
}

func run(cmd *cobra.Command, args []string, app app.App) error {
	cmd.SilenceUsage = true

	closeLog, err := logging.Setup(viper.GetString(config.ENV_LOG_FILE), slog.LevelDebug)
	if err != nil {
		return fmt.Errorf("failed to open log file: %v", err)
	}
	defer closeLog()

	provider := llm.LLMProvider(viper.GetString(config.ENV_PROVIDER))
	model := resolveModel(provider)
	directive, err := resolvePrompt(viper.GetString(config.ENV_PROMPT))
	if err != nil {
		return err
	}

	client, err := app.LLM().NewClient(provider, llm.LLMClientOptions{
		Model:       model,
		Temperature: viper.GetFloat64(config.ENV_TEMPERATURE),
		MaxTokens:   viper.GetInt(config.ENV_MAX_TOKENS),
	})
	if err != nil {
		var cfgErr *llm.ConfigurationError
		if errors.As(err, &cfgErr) {
			return fmt.Errorf("%v\n%s", cfgErr, cfgErr.Hint)
		}
		return fmt.Errorf("failed to create LLM client: %v", err)
	}

	store := conversation.New(directive)
	store.Initialize()
	streamer := completion.NewStreamer(client)
	slog.Info("session started", "session", store.ID(), "provider", provider, "model", model)

	if len(args) == 0 {
		TUIModel := app.TUI().InitialModel(ui.InitialModelOptions{
			Title:    ui.CHAT_TITLE,
			Footer:   fmt.Sprintf("Powered by %s (%s)", provider, model),
			Context:  cmd.Context(),
			Store:    store,
			Streamer: streamer,
		})
		if _, err := app.TUI().Run(TUIModel); err != nil {
			return fmt.Errorf("error running interactive mode: %v", err)
		}
		return nil
	}

	store.Append(llm.User, strings.Join(args, " "))
	out := cmd.OutOrStdout()

	if !viper.GetBool(config.ENV_STREAM) {
		aiRes, err := client.Send(cmd.Context(), store.Snapshot())
		if err != nil {
			completionErr := &llm.CompletionError{Message: err.Error(), Err: err}
			return fmt.Errorf("%w\n%s", completionErr, ui.CHAT_ERROR_HINT)
		}
		formattedRes, err := app.Format().FormatMarkdown(aiRes.Content)
		if err != nil {
			return fmt.Errorf("failed to format response: %v", err)
		}
		out.Write([]byte(formattedRes))
		return nil
	}

	_, err = streamer.Run(cmd.Context(), store, func(fragment, _ string) {
		fmt.Fprint(out, fragment)
	})
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("%w\n%s", err, ui.CHAT_ERROR_HINT)
	}
	return nil
}

// resolveModel returns the configured model, or the provider's default when
// none is set.
func resolveModel(provider llm.LLMProvider) string {
	if model := viper.GetString(config.ENV_MODEL); model != "" {
		return model
	}
	return llm.DefaultModel(provider)
}

// resolvePrompt returns the system directive. A numeric prompt names the
// STUDYBUDDY_PROMPT_<n> variable holding it; an empty one keeps the default.
func resolvePrompt(prompt string) (string, error) {
	promptNo, err := strconv.Atoi(prompt)
	if err != nil {
		return prompt, nil
	}
	promptEnv := fmt.Sprintf("%s_%v", config.ENV_PROMPT, promptNo)
	prompt = viper.GetString(promptEnv)
	if prompt == "" {
		return "", fmt.Errorf("invalid prompt no, env variable not found %s", config.GetEnvWithPrefix(promptEnv))
	}
	return prompt, nil
}
