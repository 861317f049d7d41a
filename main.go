package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"loom/backend"
	"loom/config"
	"loom/model"
	"loom/storage"
	"loom/ui"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func runErrorModal(title, message string) {
	p := tea.NewProgram(
		ui.NewErrorModal(title, message),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func main() {
	// Validate environment variables first
	if config.HasAnyEnvVar() && !config.HasAllEnvVars() {
		missingVar := config.GetMissingEnvVar()
		errorMsg := fmt.Sprintf("Missing environment variable: %s\n\n"+
			"When using environment variables, all 3 must be set:\n"+
			"  • LOOM_BACKEND_URL\n"+
			"  • LOOM_MODEL\n"+
			"  • LOOM_DATA_DIR\n\n"+
			"Set the missing variable(s) before launching loom.",
			missingVar)

		runErrorModal("Configuration Error", errorMsg)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(cfg.DataDir())

	credentials := config.NewCredentialStore(cfg.SecurityMethod, cfg.SSHKeyPath)
	if err := credentials.Load(cfg.DataDir()); err != nil {
		runErrorModal("Credential Error", fmt.Sprintf(
			"Failed to load the backend token:\n\n%v\n\n"+
				"Fix or remove the token file in %s and try again.",
			err, cfg.DataDir()))
		os.Exit(1)
	}

	client, err := backend.NewClient(cfg.BackendURL, cfg.DefaultModel, credentials.Token())
	if err != nil {
		runErrorModal("Configuration Error", fmt.Sprintf(
			"Invalid backend configuration:\n\n%v", err))
		os.Exit(1)
	}

	sessionStorage, err := storage.NewSessionStorage(cfg.DataDir())
	if err != nil {
		fmt.Printf("Failed to initialize session storage: %v\n", err)
		os.Exit(1)
	}

	searchIndex, err := storage.NewSearchIndex(cfg.DataDir())
	if err != nil {
		fmt.Printf("Failed to initialize search index: %v\n", err)
		os.Exit(1)
	}
	defer searchIndex.Close()

	// Restore the last active session, if any. A missing or unreadable
	// session just means starting fresh.
	var lastSession *storage.Session
	if lastSessionID, err := sessionStorage.LoadCurrentSessionID(); err == nil && lastSessionID != "" {
		lastSession, _ = sessionStorage.Load(lastSessionID)
	}

	dataModel := model.NewModel(cfg, client, sessionStorage, searchIndex, lastSession, Version, License)

	p := tea.NewProgram(
		ui.NewAppView(dataModel),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running loom: %v\n", err)
		os.Exit(1)
	}
}
