package pickup

import "strings"

// Selector chains, in priority order. The page markup shifts between
// releases, so each step carries several known variants.
var (
	OverlaySelectors = []Selector{
		XPath(buttonContaining("Accept")),
		XPath(buttonContaining("Allow all")),
		XPath(buttonContaining("Allow All")),
		XPath(buttonContaining("Agree")),
		XPath(buttonContaining("Continue")),
		CSS("[aria-label='Close']"),
		CSS("button[aria-label='Close']"),
		CSS(".ac-gn-traffic-overlay-close"),
	}

	TriggerSelectors = []Selector{
		CSS("button[data-autom^='productLocatorTriggerLink_']"),
		CSS("button.rf-pickup-quote-overlay-trigger"),
		CSS("[data-autom='pickup-cta']"),
		XPath(buttonContaining("Check availability")),
		XPath(elementWithText("Check availability")),
		XPath(elementWithText("Check store availability")),
	}

	InputSelectors = []Selector{
		CSS("input[name='location']"),
		CSS("[data-autom='fulfillmentLocationInput']"),
		CSS("input[placeholder*='ZIP']"),
		CSS("input[aria-label*='ZIP']"),
	}

	ContainerSelectors = []Selector{
		CSS("[data-autom='fulfillment-messages']"),
		CSS("[data-autom='fulfillment-pickup']"),
		CSS("div.rf-fulfillment-messages"),
	}

	StoreBlockSelector = CSS("[data-autom='store'], .rf-storelocator-store, [data-autom='fulfillment-store'], li.rf-store")

	NameSelectors = []Selector{
		CSS("[data-autom='storeName']"),
		CSS(".rf-storelocator-name"),
		CSS(".store-name"),
	}

	MessageSelectors = []Selector{
		CSS("[data-autom='fulfillment-message']"),
		CSS(".rf-pickup-quote"),
		CSS(".rf-availability"),
		CSS(".as-purchaseinfo-message"),
	}
)

// fallbackTriggerCount is how many leading TriggerSelectors the in-page
// script fallback tries. Only the CSS entries can run through querySelector.
const fallbackTriggerCount = 3

func buttonContaining(text string) string {
	return "//button[contains(normalize-space(.), " + xpathLiteral(text) + ")]"
}

// elementWithText matches the innermost element whose text contains text.
func elementWithText(text string) string {
	lit := xpathLiteral(text)
	return "//*[contains(normalize-space(.), " + lit + ") and not(*[contains(normalize-space(.), " + lit + ")])]"
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}
