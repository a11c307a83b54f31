package bot

import (
	"fmt"
	"strings"

	"github.com/m3rciful/clientdesk/internal/model"
	"github.com/m3rciful/clientdesk/internal/phone"
)

const noPhonesLabel = "Не вказано"

// searchListLimit caps how many hits a multi-result search reply shows.
const searchListLimit = 5

func phoneList(phones []string) string {
	if len(phones) == 0 {
		return noPhonesLabel
	}
	formatted := make([]string, len(phones))
	for i, p := range phones {
		formatted[i] = phone.FormatDisplay(p)
	}
	return strings.Join(formatted, ", ")
}

// clientCard renders the full client record shown after a single-hit search.
func clientCard(c *model.Client) string {
	return fmt.Sprintf(
		"*КЛІЄНТ ЗНАЙДЕНИЙ (ID: %d)*\n📞 Номери: %s\n📝 Коментар: %s\n🔗 Кількість фото: %d",
		c.ID, phoneList(c.Phones), c.Comment, len(c.Photos),
	)
}

// searchList renders a compact listing for a multi-hit search.
func searchList(clients []*model.Client) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Знайдено %d клієнтів:\n\n", len(clients))
	for i, c := range clients {
		if i == searchListLimit {
			break
		}
		comment := c.Comment
		if r := []rune(comment); len(r) > 20 {
			comment = string(r[:20]) + "..."
		}
		fmt.Fprintf(&b, "*%d. ID:%d*: 📞%s, 📝%s\n", i+1, c.ID, phoneList(c.Phones), comment)
	}
	b.WriteString("\nБудь ласка, уточніть запит.")
	return b.String()
}
