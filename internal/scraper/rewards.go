package scraper

import (
	"strings"

	"sjsage522/hoyocodeworker/internal/profile"

	"github.com/PuerkitoBio/goquery"
)

// amountSeparator is the multiplication sign (U+00D7) the wikis render between
// an item name and its quantity.
const amountSeparator = "×"

// ParseRewards decodes the reward items of a table cell in document order.
// Items without a name link are skipped.
func ParseRewards(cell *goquery.Selection, sel profile.Selectors) []Reward {
	var rewards []Reward

	cell.Find(sel.RewardItem).Each(func(_ int, item *goquery.Selection) {
		nameSel := item.Find(sel.RewardName).First()
		if nameSel.Length() == 0 {
			return
		}
		name := strings.TrimSpace(nameSel.Text())
		if name == "" {
			return
		}

		textSel := item.Find(sel.RewardText).First()
		text := item.Text()
		if textSel.Length() > 0 {
			text = textSel.Text()
		}
		amount := strings.Replace(text, name, "", 1)
		amount = strings.ReplaceAll(amount, amountSeparator, "")

		rewards = append(rewards, Reward{
			Name:     name,
			Amount:   ParseAmount(amount),
			ImageURL: lazyImageSource(item.Find(sel.RewardImage).First()),
		})
	})

	return rewards
}

// lazyImageSource prefers the lazy-load attribute over the placeholder src
func lazyImageSource(img *goquery.Selection) string {
	if img.Length() == 0 {
		return ""
	}
	if src := strings.TrimSpace(img.AttrOr("data-src", "")); src != "" {
		return src
	}
	return strings.TrimSpace(img.AttrOr("src", ""))
}
