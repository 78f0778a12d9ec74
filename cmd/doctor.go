package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/sellerclaw/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("sellerclaw doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	// Config
	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND — defaults plus env apply)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	// Providers
	fmt.Println()
	fmt.Println("  Providers:")
	checkProvider("OpenAI", cfg.Providers.OpenAI.APIKey)
	checkProvider("Marketplace", cfg.Marketplace.APIKey)

	// Channels
	fmt.Println()
	fmt.Println("  Channels:")
	checkChannel("Telegram", cfg.Channels.Telegram.Enabled, cfg.Channels.Telegram.Token != "")
	marketplaceStatus := "disabled (no API key)"
	if cfg.Marketplace.Enabled() {
		marketplaceStatus = "enabled"
	}
	fmt.Printf("    %-12s %s\n", "Marketplace:", marketplaceStatus)

	// Knowledge base
	fmt.Println()
	kb := config.ExpandHome(cfg.Retriever.KnowledgeFile)
	fmt.Printf("  Knowledge: %s", kb)
	if info, err := os.Stat(kb); err != nil {
		fmt.Println(" (NOT FOUND)")
	} else {
		fmt.Printf(" (OK, %d bytes)\n", info.Size())
	}

	// Sessions storage
	sess := config.ExpandHome(cfg.Sessions.Storage)
	fmt.Printf("  Sessions:  %s", sess)
	if _, err := os.Stat(sess); err != nil {
		fmt.Println(" (NOT FOUND — created on first run)")
	} else {
		fmt.Println(" (OK)")
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkProvider(name, apiKey string) {
	if apiKey != "" {
		fmt.Printf("    %-12s %s\n", name+":", maskKey(apiKey))
	} else {
		fmt.Printf("    %-12s (not configured)\n", name+":")
	}
}

// maskKey hides all but the first and last four characters of a key. Keys too
// short to mask that way are fully redacted.
func maskKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:4] + strings.Repeat("*", len(apiKey)-8) + apiKey[len(apiKey)-4:]
}

func checkChannel(name string, enabled, hasCredentials bool) {
	status := "disabled"
	if enabled && hasCredentials {
		status = "enabled"
	} else if enabled {
		status = "enabled (missing credentials)"
	}
	fmt.Printf("    %-12s %s\n", name+":", status)
}
