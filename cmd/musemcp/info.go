package main

import (
	"flag"
	"fmt"
	"os"
)

// runInfo handles the "musemcp info" subcommand.
// It prints general MCP configuration information and, with flags,
// client-specific configuration snippets.
func runInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	claude := fs.Bool("claude", false, "show Claude Desktop MCP client configuration")
	cursor := fs.Bool("cursor", false, "show Cursor MCP client configuration")
	fs.Parse(args)

	switch {
	case *claude:
		printClaudeConfig()
	case *cursor:
		printCursorConfig()
	default:
		printGeneralInfo()
	}
}

func printGeneralInfo() {
	fmt.Fprintf(os.Stdout, `musemcp %s — narrative-to-music MCP server

musemcp analyzes narrative prose into character profiles, derives artist
personas from them, and writes optimized prompt strings for a generative
music service. It never calls the generator itself.

TRANSPORT MODES

  stdio (default)
    Communicates over stdin/stdout using JSON-RPC 2.0. Used when launched
    as a subprocess by an MCP client.

  http
    Runs as a standalone HTTP server (MCP Streamable HTTP transport).

    Endpoint:      POST /mcp
    Health check:  GET /health
    Default port:  21470

CONFIGURATION

  A single JSON document. Path resolution: -config flag, then
  MUSEMCP_CONFIG, then ./musemcp.json, then built-in defaults.
  The file hot-reloads on change; invalid edits are rejected and logged.

TOOLS (14)

  Pipeline (5):       analyze_character_text, generate_artist_personas,
                      create_music_commands, complete_workflow,
                      analyze_artist_psychology
  Genre mapping (3):  map_traits_to_genres, find_similar_genres,
                      get_genre_hierarchy
  Knowledge (3):      get_music_best_practices, refresh_wiki_data,
                      get_wiki_status
  Configuration (3):  update_wiki_config, add_wiki_urls, remove_wiki_urls

Run "musemcp info -claude" or "musemcp info -cursor" for client snippets.
`, Version)
}

func printClaudeConfig() {
	fmt.Fprint(os.Stdout, `Add to claude_desktop_config.json:

{
  "mcpServers": {
    "musemcp": {
      "command": "musemcp",
      "env": {
        "MUSEMCP_CONFIG": "/path/to/musemcp.json"
      }
    }
  }
}
`)
}

func printCursorConfig() {
	fmt.Fprint(os.Stdout, `Add to .cursor/mcp.json:

{
  "mcpServers": {
    "musemcp": {
      "command": "musemcp",
      "args": ["-config", "/path/to/musemcp.json"]
    }
  }
}
`)
}
