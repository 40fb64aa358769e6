package service

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/pkg/xapi"
)

// ShortLink returns the redirect URL for a book code, or "" without a code.
func ShortLink(baseURL, code string) string {
	if code == "" {
		return ""
	}
	return strings.TrimSuffix(baseURL, "/") + "/r/" + url.PathEscape(code)
}

// ComposePost renders the announcement text for a book within the post limit.
// The title is shortened with an ellipsis when the whole text would not fit.
func ComposePost(b *models.Book, baseURL string) string {
	var tail []string
	if b.SalePrice.Valid && b.SalePrice.Decimal.IsPositive() {
		tail = append(tail, "Cena: "+b.SalePrice.Decimal.StringFixed(2)+" zł")
	}
	if b.StockStatus != nil {
		switch *b.StockStatus {
		case models.StockInStock:
			tail = append(tail, "Dostępna od ręki")
		case models.StockOutOfStock:
			tail = append(tail, "Chwilowo niedostępna")
		}
	}
	if link := ShortLink(baseURL, b.Code); link != "" {
		tail = append(tail, link)
	} else if b.ProductURL != nil && *b.ProductURL != "" {
		tail = append(tail, *b.ProductURL)
	}

	const prefix = "📚 "
	rest := ""
	if len(tail) > 0 {
		rest = "\n\n" + strings.Join(tail, "\n")
	}

	budget := xapi.MaxPostLength - utf8.RuneCountInString(prefix) - utf8.RuneCountInString(rest)
	title := strings.TrimSpace(b.Title)
	if utf8.RuneCountInString(title) > budget {
		if budget < 1 {
			budget = 1
		}
		title = strings.TrimSpace(string([]rune(title)[:budget-1])) + "…"
	}
	return prefix + title + rest
}
