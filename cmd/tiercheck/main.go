package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/forgo/guilds/internal/provider"
	"github.com/forgo/guilds/internal/service"
)

func main() {
	catalogPath := flag.String("catalog", "", "Path to the YAML tier and role catalog (default: built-in)")
	locale := flag.String("locale", "en", "Locale used to format costs")
	symbol := flag.String("symbol", "$", "Currency symbol")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	catalog, err := service.LoadCatalogFile(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		os.Exit(1)
	}

	tiers, err := service.NewTierCatalog(catalog.Tiers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid tiers: %v\n", err)
		os.Exit(1)
	}
	roles, err := service.NewRoleCatalog(catalog.Roles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid roles: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"tiers":        tiers.All(),
			"roles":        roles.All(),
			"managed":      append(tiers.Nodes(), roles.Nodes()...),
			"max_level":    tiers.MaxLevel(),
			"default_tier": tiers.Default().Name,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	ledger := provider.NewMemoryLedger(provider.LedgerConfig{Locale: *locale, Symbol: *symbol})

	fmt.Println("Catalog OK")
	fmt.Println("==========")
	fmt.Println()
	fmt.Println("Tiers:")
	for _, t := range tiers.All() {
		maxMembers := "unlimited"
		if t.MaxMembers > 0 {
			maxMembers = fmt.Sprint(t.MaxMembers)
		}
		fmt.Printf("  %d %-10s cost %-10s prosperity %-6d members %-9s vaults %d\n",
			t.Level, t.Name, ledger.Format(t.Cost), t.Prosperity, maxMembers, t.VaultCount)
	}
	fmt.Println()
	fmt.Println("Roles:")
	for _, r := range roles.All() {
		actions := make([]string, 0, len(r.Actions))
		for _, a := range r.Actions {
			actions = append(actions, string(a))
		}
		fmt.Printf("  %d %-10s %s\n", r.Level, r.Name, strings.Join(actions, ","))
	}
}
