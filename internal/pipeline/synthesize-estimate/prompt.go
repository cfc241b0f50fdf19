// internal/pipeline/synthesize-estimate/prompt.go
package synthesizeestimate

import (
	"fmt"
	"strings"
)

// systemInstruction sets the role and the fixed reference rates. The rates
// are sanity bounds for the model, not hard prices; retrieved evidence takes
// precedence where it exists.
const systemInstruction = `You are a senior electrical estimator for a UK contracting firm.
You produce itemised tender cost estimates in GBP.

Reference rates (sanity bounds, not fixed prices):
- Qualified electrician: 40-55 GBP per hour
- Apprentice/mate: 20-30 GBP per hour
- Overheads: typically 8-12 percent of direct costs
- Profit margin: typically 12-18 percent

Rules:
- Ground every price in the supplied evidence where possible.
- total_estimate must equal labour_cost + materials_cost + equipment_cost + overheads + profit.
- Every breakdown line's cost must equal quantity times rate.
- All monetary values are plain numbers, no currency symbols.
- Respond with exactly one JSON object and nothing else.`

// responseShape is appended to the prompt so the model emits the expected
// field set.
const responseShape = `{
  "labour_hours": number,
  "labour_cost": number,
  "materials_cost": number,
  "equipment_cost": number,
  "overheads": number,
  "profit": number,
  "total_estimate": number,
  "hazards": [string],
  "programme": string,
  "confidence": "Low" | "Medium" | "High",
  "confidence_factors": [string],
  "notes": string,
  "breakdown": {
    "labour": [{"description": string, "quantity": number, "unit": string, "rate": number, "cost": number}],
    "materials": [{"description": string, "quantity": number, "unit": string, "rate": number, "cost": number}],
    "equipment": [{"description": string, "quantity": number, "unit": string, "rate": number, "cost": number}]
  },
  "citations": [{"source": string, "item": string, "price": number}]
}`

// buildPrompt renders the grounded user prompt. Evidence blocks are capped
// to keep the prompt within the token budget.
func (h *Handler) buildPrompt(input *Input) string {
	var sb strings.Builder

	sb.WriteString("Project description: ")
	sb.WriteString(input.Description)
	sb.WriteString("\n")

	if input.Scope != "" {
		sb.WriteString("Scope of works:\n")
		sb.WriteString(input.Scope)
		sb.WriteString("\n")
	}

	if len(input.Categories) > 0 {
		sb.WriteString("Work categories: ")
		sb.WriteString(strings.Join(input.Categories, ", "))
		sb.WriteString("\n")
	}

	if input.ValueEstimate > 0 {
		fmt.Fprintf(&sb, "Client budget indication: %.2f GBP\n", input.ValueEstimate)
	}

	fmt.Fprintf(&sb, "Project complexity: %s (score %d)\n", input.Assessment.Level, input.Assessment.Score)
	fmt.Fprintf(&sb, "Regional cost multiplier: %.2f (%s). Apply this to labour rates.\n",
		input.Adjustment.Multiplier, input.Adjustment.Region)

	pricing := input.Pricing
	if len(pricing) > h.config.MaxPricingItems {
		pricing = pricing[:h.config.MaxPricingItems]
	}
	if len(pricing) > 0 {
		sb.WriteString("\nPricing evidence:\n")
		for _, item := range pricing {
			fmt.Fprintf(&sb, "- %s: %.2f GBP per %s (supplier: %s, category: %s)\n",
				item.Name, item.BaseCost, item.Unit, item.Supplier, item.Category)
		}
	} else {
		sb.WriteString("\nNo pricing evidence was retrieved; rely on the reference rates.\n")
	}

	labour := input.Labour
	if len(labour) > h.config.MaxLabourItems {
		labour = labour[:h.config.MaxLabourItems]
	}
	if len(labour) > 0 {
		sb.WriteString("\nLabour guidance:\n")
		for _, norm := range labour {
			fmt.Fprintf(&sb, "- %s: %s\n", norm.Topic, norm.Description)
		}
	}

	sb.WriteString("\nProduce the estimate as one JSON object with this shape:\n")
	sb.WriteString(responseShape)

	return sb.String()
}
