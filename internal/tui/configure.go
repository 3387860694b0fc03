// Package tui is the interactive configuration flow behind
// `voxpad configure`.
package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/voxpad/voxpad/internal/config"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

var languageOptions = []huh.Option[string]{
	huh.NewOption("Auto-detect", ""),
	huh.NewOption("English", "en"),
	huh.NewOption("Italian", "it"),
	huh.NewOption("Spanish", "es"),
	huh.NewOption("French", "fr"),
	huh.NewOption("German", "de"),
	huh.NewOption("Portuguese", "pt"),
	huh.NewOption("Japanese", "ja"),
	huh.NewOption("Chinese", "zh"),
}

// Run starts the configuration flow over the given config and returns the
// edited copy, or Cancelled when the user bails out.
func Run(existing *config.Config) (*ConfigureResult, error) {
	cfg := *existing
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.ProviderConfig)
	}

	clearScreen()
	fmt.Println(Logo())
	fmt.Println()

	provider := cfg.Transcription.Provider
	if provider == "" {
		provider = "realtime"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription provider").
				Description("realtime streams text as you speak; openai transcribes after you stop").
				Options(
					huh.NewOption("Streaming (realtime)", "realtime"),
					huh.NewOption("OpenAI Whisper (batch)", "openai"),
				).
				Value(&provider),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}
	cfg.Transcription.Provider = provider

	if err := runProviderForm(&cfg, provider); err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}
	if err := runGeneralForm(&cfg); err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}

	confirmed, err := showSummary(&cfg)
	if err != nil || !confirmed {
		return &ConfigureResult{Cancelled: true}, nil
	}
	return &ConfigureResult{Config: &cfg}, nil
}

func runProviderForm(cfg *config.Config, provider string) error {
	pc := cfg.Providers[provider]
	apiKey := pc.APIKey

	fields := []huh.Field{
		huh.NewInput().
			Title(fmt.Sprintf("%s API key", providerDisplayName(provider))).
			Description(keyHint(provider, apiKey)).
			EchoMode(huh.EchoModePassword).
			Value(&apiKey),
	}

	if provider == "realtime" {
		fields = append(fields,
			huh.NewInput().
				Title("Websocket base URL").
				Description("e.g. wss://api.example.com").
				Value(&pc.BaseURL),
			huh.NewInput().
				Title("Token endpoint (optional)").
				Description("leave empty to send the API key directly").
				Value(&pc.TokenURL),
		)
	}

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	if apiKey != "" {
		pc.APIKey = apiKey
	}
	cfg.Providers[provider] = pc
	return nil
}

func runGeneralForm(cfg *config.Config) error {
	notifType := cfg.Notifications.Type
	if notifType == "" {
		notifType = "desktop"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language").
				Options(languageOptions...).
				Value(&cfg.Transcription.Language),
			huh.NewInput().
				Title("Model").
				Description("leave empty for the provider default").
				Value(&cfg.Transcription.Model),
			huh.NewSelect[string]().
				Title("Notifications").
				Options(
					huh.NewOption("Desktop (notify-send)", "desktop"),
					huh.NewOption("Log only", "log"),
					huh.NewOption("None", "none"),
				).
				Value(&notifType),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Notifications.Type = notifType
	cfg.Notifications.Enabled = notifType != "none"
	return nil
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Summary"))
	fmt.Printf("  Provider:      %s\n", providerDisplayName(cfg.Transcription.Provider))
	fmt.Printf("  API key:       %s\n", maskAPIKey(cfg.ResolveAPIKey(cfg.Transcription.Provider)))
	if cfg.Transcription.Provider == "realtime" {
		fmt.Printf("  Base URL:      %s\n", cfg.Providers["realtime"].BaseURL)
	}
	fmt.Printf("  Language:      %s\n", languageLabel(cfg.Transcription.Language))
	fmt.Printf("  Notifications: %s\n", cfg.Notifications.Type)
	fmt.Println()

	confirmed := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func providerDisplayName(provider string) string {
	switch provider {
	case "realtime":
		return "Streaming provider"
	case "openai":
		return "OpenAI"
	default:
		return provider
	}
}

func keyHint(provider, existing string) string {
	if existing != "" {
		return fmt.Sprintf("current: %s (leave empty to keep)", maskAPIKey(existing))
	}
	if provider == "openai" {
		return "or set OPENAI_API_KEY in the environment"
	}
	return "or set VOXPAD_API_KEY in the environment"
}

func maskAPIKey(key string) string {
	if key == "" {
		return "(none)"
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func languageLabel(code string) string {
	for _, opt := range languageOptions {
		if opt.Value == code {
			return opt.Key
		}
	}
	return code
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
