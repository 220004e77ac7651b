// Package templates holds the embedded per-stage checklist blueprints that
// seed default items when a transaction enters a stage.
package templates

import (
	"embed"
	"fmt"
	"sync"

	"realtydesk_backend/internal/transactions/domain"

	"gopkg.in/yaml.v3"
)

//go:embed sale.yaml purchase.yaml
var files embed.FS

// ItemTemplate is one blueprint entry. DependsOn references titles of other
// top-level items in the same stage; Subtasks nest exactly one level.
type ItemTemplate struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Priority    string         `yaml:"priority"`
	DueDays     int            `yaml:"due_days"`
	Weight      float64        `yaml:"weight"`
	DependsOn   []string       `yaml:"depends_on"`
	Subtasks    []ItemTemplate `yaml:"subtasks"`
}

type stageFile struct {
	Stages map[string][]ItemTemplate `yaml:"stages"`
}

var (
	loadOnce sync.Once
	loadErr  error
	byType   map[domain.TransactionType]map[string][]ItemTemplate
)

func load() {
	byType = map[domain.TransactionType]map[string][]ItemTemplate{}
	for txType, name := range map[domain.TransactionType]string{
		domain.TypeSale:     "sale.yaml",
		domain.TypePurchase: "purchase.yaml",
	} {
		raw, err := files.ReadFile(name)
		if err != nil {
			loadErr = fmt.Errorf("read template %s: %w", name, err)
			return
		}
		var parsed stageFile
		if err := yaml.Unmarshal(raw, &parsed); err != nil {
			loadErr = fmt.Errorf("parse template %s: %w", name, err)
			return
		}
		byType[txType] = parsed.Stages
	}
}

// ForStage returns the blueprint items for one stage of one transaction
// type. Leases follow the sale templates. An unknown stage returns an empty
// slice, not an error.
func ForStage(txType domain.TransactionType, stage domain.Stage) ([]ItemTemplate, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}

	if txType == domain.TypeLease {
		txType = domain.TypeSale
	}
	stages, ok := byType[txType]
	if !ok {
		return nil, fmt.Errorf("no templates for transaction type %q", txType)
	}
	return stages[string(stage)], nil
}
