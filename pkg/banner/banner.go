package banner

import (
	"fmt"

	"docchat/pkg/config"
)

const banner = `
██████╗  ██████╗  ██████╗ ██████╗██╗  ██╗ █████╗ ████████╗
██╔══██╗██╔═══██╗██╔════╝██╔════╝██║  ██║██╔══██╗╚══██╔══╝
██║  ██║██║   ██║██║     ██║     ███████║███████║   ██║
██║  ██║██║   ██║██║     ██║     ██╔══██║██╔══██║   ██║
██████╔╝╚██████╔╝╚██████╗╚██████╗██║  ██║██║  ██║   ██║
╚═════╝  ╚═════╝  ╚═════╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝
`

// Print writes the startup banner with the effective runtime settings.
func Print(cfg *config.Config, addr, dbPath, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if cfg != nil && cfg.Gateway.BaseURL != "" {
		fmt.Printf("Gateway:  %s\n", cfg.Gateway.BaseURL)
	}
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/threads                 - Start a new conversation")
	fmt.Println("GET  /v1/threads                 - List conversations with previews")
	fmt.Println("POST /v1/threads/{id}/messages   - Ask a question in a conversation")
	fmt.Println("POST /v1/documents               - Upload a PDF for indexing")
	fmt.Println("POST /v1/summaries?mode=<m>      - Summarize the indexed corpus")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/threads'\n", addr)
	fmt.Printf("curl -X POST 'http://localhost%s/v1/threads/<id>/messages' -d '{\"content\":\"What is VIT?\"}'\n", addr)

	if cfg == nil {
		return
	}
	fmt.Println("\n== Production? ================================================")
	if n := len(cfg.Security.APIKeys.Frontend); n > 0 {
		fmt.Printf("- Frontend API keys: OK (%d)\n", n)
	} else {
		fmt.Println("- Frontend API keys: MISSING (anyone on the network can read your chats)")
	}
	if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}
	if cfg.Retention.Enabled {
		cron := cfg.Retention.Cron
		if cron == "" {
			cron = "0 2 * * *"
		}
		fmt.Printf("- Retention: enabled (cron=%s, max_threads=%d, max_messages=%d)\n",
			cron, cfg.Retention.MaxThreads, cfg.Retention.MaxMessagesPerThread)
	} else {
		fmt.Println("- Retention: disabled (histories grow without bound)")
	}
	fmt.Println("\n== Logs: ======================================================")
}
