package notify

import (
	"strings"

	"investbot/pkg/models"
)

// Static template catalog, one entry per category.
var templateCatalog = map[models.NotificationCategory]models.NotificationTemplate{
	models.CategoryTradingSignals: {
		Category:        models.CategoryTradingSignals,
		Title:           "📈 Trading Signal",
		Body:            "New {{signal_type}} signal for {{asset}}: {{action}} at {{price}}",
		Variables:       []string{"signal_type", "asset", "action", "price"},
		DefaultPriority: models.PriorityHigh,
	},
	models.CategoryPriceAlerts: {
		Category:        models.CategoryPriceAlerts,
		Title:           "💰 Price Alert",
		Body:            "{{asset}} has {{direction}} to {{price}} ({{change}}% in 24h)",
		Variables:       []string{"asset", "direction", "price", "change"},
		DefaultPriority: models.PriorityHigh,
	},
	models.CategoryPortfolioUpdates: {
		Category:        models.CategoryPortfolioUpdates,
		Title:           "📊 Portfolio Update",
		Body:            "Your portfolio is now worth {{value}} ({{change}}% today). Accrued earnings: {{earnings}}",
		Variables:       []string{"value", "change", "earnings"},
		DefaultPriority: models.PriorityMedium,
	},
	models.CategorySystemAlerts: {
		Category:        models.CategorySystemAlerts,
		Title:           "⚠️ System Alert",
		Body:            "{{message}}",
		Variables:       []string{"message"},
		DefaultPriority: models.PriorityUrgent,
	},
	models.CategoryNews: {
		Category:        models.CategoryNews,
		Title:           "📰 Market News",
		Body:            "{{headline}}\n\n{{summary}}",
		Variables:       []string{"headline", "summary"},
		DefaultPriority: models.PriorityLow,
	},
	models.CategoryEducational: {
		Category:        models.CategoryEducational,
		Title:           "🎓 Did You Know",
		Body:            "{{title}}\n\n{{content}}",
		Variables:       []string{"title", "content"},
		DefaultPriority: models.PriorityLow,
	},
}

// renderTemplate fills every declared variable; a value missing from
// data renders as the literal "N/A".
func renderTemplate(tpl models.NotificationTemplate, data map[string]string) string {
	body := tpl.Body
	for _, v := range tpl.Variables {
		value, ok := data[v]
		if !ok || value == "" {
			value = "N/A"
		}
		body = strings.ReplaceAll(body, "{{"+v+"}}", value)
	}
	return body
}
