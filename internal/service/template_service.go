// internal/service/template_service.go
package service

import (
	"fmt"
	"strings"

	"github.com/brightsend/campaign-engine/internal/model"
)

// RenderTemplate replaces {placeholder} tokens with customer data.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

func customerPlaceholders(c model.Customer) map[string]string {
	return map[string]string{
		"name":        c.Name,
		"email":       c.Email,
		"total_spend": fmt.Sprintf("%.2f", c.TotalSpend),
		"visits":      fmt.Sprintf("%d", c.Visits),
	}
}
