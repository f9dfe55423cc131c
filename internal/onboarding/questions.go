package onboarding

import (
	"fmt"
	"strings"
)

// Question is one step in the company profile interview
type Question struct {
	Key       string
	Prompt    string
	FollowUp  string // acknowledgment shown before the next prompt; {value} is replaced with the answer
	Multi     bool   // comma-separated answer stored as a list
	Validate  func(answer string) error
	Transform func(answer string) string
}

// RenderFollowUp substitutes the user's answer into the follow-up template
func (q Question) RenderFollowUp(answer string) string {
	if q.FollowUp == "" {
		return ""
	}
	return strings.ReplaceAll(q.FollowUp, "{value}", answer)
}

var riskLevels = map[string]bool{"low": true, "medium": true, "high": true}

// CompanyProfileQuestions is the fixed interview script. Order matters:
// the sequencer walks it front to back and the finalized profile keys
// off each entry's Key.
var CompanyProfileQuestions = []Question{
	{
		Key:      "companyName",
		Prompt:   "Welcome! I'm your AI business strategist. Let's build your company profile. First, what's your company's name?",
		FollowUp: "Great to meet you, {value}!",
	},
	{
		Key:      "industry",
		Prompt:   "What industry are you in? (e.g., SaaS, E-commerce, Healthcare, Finance)",
		FollowUp: "{value} — a space with a lot of opportunity.",
	},
	{
		Key:    "companyType",
		Prompt: "What type of company are you? (e.g., B2B, B2C, B2B2C, Marketplace)",
	},
	{
		Key:    "description",
		Prompt: "Give me a short description of what your company does.",
	},
	{
		Key:      "products",
		Prompt:   "What are your main products or services? (separate with commas)",
		FollowUp: "Got it — I'll factor those offerings into every strategy.",
		Multi:    true,
	},
	{
		Key:    "customerSegments",
		Prompt: "Who are your customer segments? (separate with commas)",
		Multi:  true,
	},
	{
		Key:      "competitors",
		Prompt:   "Who are your main competitors? (separate with commas)",
		FollowUp: "Noted. I'll keep an eye on {value}.",
		Multi:    true,
	},
	{
		Key:    "annualRevenue",
		Prompt: "What's your approximate annual revenue? (e.g., $500K, $2M, pre-revenue)",
	},
	{
		Key:    "employeeCount",
		Prompt: "How many employees do you have?",
	},
	{
		Key:    "operationalCosts",
		Prompt: "What are your approximate monthly operational costs?",
	},
	{
		Key:    "marketingBudget",
		Prompt: "What's your monthly marketing budget?",
	},
	{
		Key:    "salesBudget",
		Prompt: "What's your monthly sales budget?",
	},
	{
		Key:      "goals",
		Prompt:   "What are your top business goals for the next 12 months? (separate with commas)",
		FollowUp: "Ambitious — I like it.",
		Multi:    true,
	},
	{
		Key:    "challenges",
		Prompt: "What are your biggest challenges right now? (separate with commas)",
		Multi:  true,
	},
	{
		Key:      "riskTolerance",
		Prompt:   "Last one: what's your risk tolerance for new initiatives? (low, medium, or high)",
		FollowUp: "Perfect — your profile is complete. Head to the Enterprise console to start issuing commands.",
		Validate: func(answer string) error {
			if !riskLevels[strings.ToLower(strings.TrimSpace(answer))] {
				return fmt.Errorf("please answer low, medium, or high")
			}
			return nil
		},
		Transform: func(answer string) string {
			return strings.ToLower(strings.TrimSpace(answer))
		},
	},
}

// profileDefaults fills keys the user skipped or never reached
func profileDefaults(key string) interface{} {
	switch key {
	case "industry":
		return "Other"
	case "riskTolerance":
		return "medium"
	case "products", "customerSegments", "competitors", "goals", "challenges":
		return []string{}
	default:
		return ""
	}
}
