package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/klemjul/studybuddy/internal/config"
	"github.com/klemjul/studybuddy/internal/format"
	"github.com/klemjul/studybuddy/internal/llm"
	"github.com/klemjul/studybuddy/internal/ui"
)

type TUIService interface {
	InitialModel(opts ui.InitialModelOptions) ui.ChatTUIModel
	Run(model ui.ChatTUIModel) (returnModel tea.Model, returnErr error)
}

type LLMService interface {
	NewClient(provider llm.LLMProvider, opts llm.LLMClientOptions) (llm.LLMClient, error)
}

type TextFormatService interface {
	FormatMarkdown(text string) (string, error)
}

type App interface {
	TUI() TUIService
	LLM() LLMService
	Format() TextFormatService
}

type DefaultTUIService struct{}

// DefaultLLMService resolves provider credentials from the secrets file and
// the environment when a client is built.
type DefaultLLMService struct {
	secretsPath func() string
}

type DefaultTextFormatService struct{}

type DefaultApp struct {
	tui    TUIService
	llm    LLMService
	format TextFormatService
}

func (a *DefaultApp) TUI() TUIService           { return a.tui }
func (a *DefaultApp) LLM() LLMService           { return a.llm }
func (a *DefaultApp) Format() TextFormatService { return a.format }

func (c *DefaultTUIService) InitialModel(opts ui.InitialModelOptions) ui.ChatTUIModel {
	return ui.InitialModel(opts)
}
func (c *DefaultTUIService) Run(model ui.ChatTUIModel) (returnModel tea.Model, returnErr error) {
	return tea.NewProgram(model, tea.WithAltScreen()).Run()
}

func (l *DefaultLLMService) NewClient(provider llm.LLMProvider, opts llm.LLMClientOptions) (llm.LLMClient, error) {
	pathFn := l.secretsPath
	if pathFn == nil {
		pathFn = config.SecretsPath
	}
	secrets, err := config.LoadSecrets(pathFn())
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %v", err)
	}
	return llm.NewClient(provider, opts, secrets.Lookup)
}

func (l *DefaultTextFormatService) FormatMarkdown(text string) (string, error) {
	return format.FormatMarkdown(text)
}

func NewDefaultApp() App {
	return &DefaultApp{tui: &DefaultTUIService{}, llm: &DefaultLLMService{}, format: &DefaultTextFormatService{}}
}
