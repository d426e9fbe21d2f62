// ABOUTME: Entry point for the outreach agent, its operator CLI, and MCP server
// ABOUTME: Routes to the agent loop, review and queue commands, or the MCP server based on arguments
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/cli"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/config"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/outreach/outreach.db)")
	configPath := flag.String("config", "", "Config file (default: ~/.config/outreach/config.yaml)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("%s version %s\n", config.AppName, version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	// sync init only talks to Google
	if len(args) >= 2 && args[0] == "sync" && args[1] == "init" {
		if err := cli.SyncInitCommand(args[2:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	database, err := db.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if *initOnly {
		log.Printf("Database initialized at %s", cfg.DatabasePath)
		return
	}

	if err := dispatch(database, cfg, args[0], args[1:]); err != nil {
		_ = database.Close()
		log.Fatalf("Error: %v", err)
	}
}

func dispatch(database *sql.DB, cfg *config.Config, command string, args []string) error {
	if command == "mcp" {
		return cli.MCPCommand(database, cfg)
	}
	if command == "classify" {
		return cli.ClassifyCommand(cfg, cli.StdinOrEmpty(), args)
	}

	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("%s requires a subcommand", command)
	}
	sub, subArgs := args[0], args[1:]

	switch command {
	case "agent":
		switch sub {
		case "run":
			return cli.AgentRunCommand(database, cfg, subArgs)
		case "status":
			return cli.AgentStatusCommand(database, cfg, subArgs)
		}
	case "prospects":
		switch sub {
		case "add":
			return cli.AddProspectCommand(database, subArgs)
		case "list":
			return cli.ListProspectsCommand(database, subArgs)
		}
	case "tasks":
		switch sub {
		case "list":
			return cli.ListTasksCommand(database, subArgs)
		case "retry":
			return cli.RetryTaskCommand(database, subArgs)
		}
	case "approvals":
		switch sub {
		case "list":
			return cli.ListApprovalsCommand(database, subArgs)
		case "approve":
			return cli.ApproveCommand(database, subArgs)
		case "reject":
			return cli.RejectCommand(database, subArgs)
		}
	case "handoffs":
		switch sub {
		case "list":
			return cli.ListHandoffsCommand(database, subArgs)
		case "resolve":
			return cli.ResolveHandoffCommand(database, subArgs)
		}
	case "sync":
		if sub == "replies" {
			return cli.SyncRepliesCommand(database, cfg, subArgs)
		}
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}

	printUsage()
	return fmt.Errorf("unknown %s command: %s", command, sub)
}

func printUsage() {
	fmt.Printf(`%[1]s - autonomous outreach agent

USAGE:
  %[1]s [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --config PATH    Config file (default: ~/.config/outreach/config.yaml)
  --db-path PATH   Database path (default: ~/.local/share/outreach/outreach.db)
  --init           Initialize database and exit
  --version        Show version and exit

AGENT:
  agent run [--once] [--interval 30s] [--verbose]
                           Run the outreach loop until interrupted
  agent status             Pipeline counts, queue depth, send budget, and sync state

PROSPECTS:
  prospects add --name NAME (--email EMAIL | --linkedin URL) [--title T] [--company C]
                [--employees N] [--funding USD] [--intent 0-100]
  prospects list [--status S] [--limit N]

REVIEW:
  approvals list [--status pending]
  approvals approve ID [--draft TEXT]
  approvals reject ID
  handoffs list [--status open]
  handoffs resolve ID

TASKS:
  tasks list [--status pending|in_progress|failed]
  tasks retry ID [--delay 10m]

REPLIES:
  classify [--subject S] [--body TEXT | -] [--rules-only]
                           Classify a reply and show where it would be routed
  sync init                Authorize Gmail access
  sync replies [--lookback 168h]
                           Poll Gmail once for prospect replies

MCP:
  mcp                      Serve tools, resources, and prompts over stdio

Environment overrides: OUTREACH_DB_PATH, OUTREACH_AUTO_APPROVE, OUTREACH_DAILY_LIMIT,
OUTREACH_AI_PROVIDER, OUTREACH_AI_MODEL, GEMINI_API_KEY, GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET
`, config.AppName)
}
