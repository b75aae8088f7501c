package analyst

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/enriquecapellan/ai-qualifier-be/internal/model"
	"github.com/enriquecapellan/ai-qualifier-be/internal/scrape"
)

func profilePrompt(domain string, scraped *scrape.Fields) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Given the domain %q and the following scraped website data, extract and return a JSON object with:\n", domain)
	sb.WriteString("- name: The company name (extract from title, h1, or infer from domain)\n")
	sb.WriteString("- summary: A comprehensive description of what this company does based on the scraped content\n\n")

	sb.WriteString("Scraped data:\n")
	if scraped != nil {
		fmt.Fprintf(&sb, "Title: %s\n", scraped.Title)
		fmt.Fprintf(&sb, "Description: %s\n", scraped.Description)
		fmt.Fprintf(&sb, "H1: %s\n", scraped.Heading)
		fmt.Fprintf(&sb, "About Section: %s\n", scraped.AboutSection)
		fmt.Fprintf(&sb, "Main Content: %s\n", scraped.MainContent)
	} else {
		sb.WriteString("No website data available - domain may not be accessible\n")
	}

	sb.WriteString("\nIf you cannot determine the company information from the scraped data, try to infer from the domain name and common knowledge.\n\n")
	sb.WriteString("Return only valid JSON in this format:\n")
	sb.WriteString(`{
  "name": "Company Name or null",
  "summary": "Comprehensive description of the company's business, products, and services or null"
}`)

	return sb.String()
}

func icpPrompt(name, summary *string) string {
	var sb strings.Builder

	sb.WriteString("Generate a comprehensive Ideal Customer Profile (ICP) JSON for a company with this information:\n\n")
	fmt.Fprintf(&sb, "Company: %s\n", derefOr(name, "Unknown"))
	fmt.Fprintf(&sb, "Description: %s\n\n", derefOr(summary, ""))

	sb.WriteString("Return a JSON object with the following structure:\n")
	sb.WriteString(`{
  "title": "ICP Title (e.g., 'Enterprise SaaS Companies')",
  "description": "Detailed description of the ideal customer profile",
  "personas": [
    {
      "role": "Decision Maker Role",
      "title": "Job Title",
      "responsibilities": ["Responsibility 1", "Responsibility 2"],
      "painPoints": ["Pain Point 1", "Pain Point 2"],
      "goals": ["Goal 1", "Goal 2"]
    }
  ],
  "companySizeRange": "Size range (e.g., '50-500 employees', 'Enterprise 1000+')",
  "revenueRange": "Revenue range (e.g., '$1M-$10M ARR', '$10M+ ARR')",
  "industries": ["Industry 1", "Industry 2", "Industry 3"],
  "regions": ["North America", "Europe", "Asia-Pacific"],
  "fundingStages": ["Series A", "Series B", "Growth Stage"]
}`)
	sb.WriteString("\n\nMake the ICP structured, detailed, actionable, and based on the company's likely target market. Make sure to generate 3-5 personas.")

	return sb.String()
}

func qualificationPrompt(domain string, scraped *scrape.Fields, companySummary string, icp *model.ICP) string {
	var sb strings.Builder

	sb.WriteString("Analyze the qualification of a prospect company against an Ideal Customer Profile (ICP).\n\n")

	sb.WriteString("PROSPECT COMPANY:\n")
	fmt.Fprintf(&sb, "Domain: %s\n", domain)
	if scraped != nil {
		fmt.Fprintf(&sb, "Website Title: %s\n", scraped.Title)
		fmt.Fprintf(&sb, "Description: %s\n", scraped.Description)
		fmt.Fprintf(&sb, "Main Content: %s\n", scraped.MainContent)
	} else {
		sb.WriteString("No website data available\n")
	}

	sb.WriteString("\nTARGET COMPANY (for context):\n")
	fmt.Fprintf(&sb, "Description: %s\n", companySummary)

	sb.WriteString("\nIDEAL CUSTOMER PROFILE (ICP):\n")
	fmt.Fprintf(&sb, "Title: %s\n", derefOr(icp.Title, ""))
	fmt.Fprintf(&sb, "Description: %s\n", derefOr(icp.Description, ""))
	fmt.Fprintf(&sb, "Company Size Range: %s\n", derefOr(icp.CompanySizeRange, ""))
	fmt.Fprintf(&sb, "Revenue Range: %s\n", derefOr(icp.RevenueRange, ""))
	fmt.Fprintf(&sb, "Industries: %s\n", jsonOr(icp.Industries, "[]"))
	fmt.Fprintf(&sb, "Regions: %s\n", jsonOr(icp.Regions, "[]"))
	fmt.Fprintf(&sb, "Funding Stages: %s\n", jsonOr(icp.FundingStages, "[]"))
	fmt.Fprintf(&sb, "Personas: %s\n", jsonOr(icp.Personas, "[]"))

	sb.WriteString("\nAnalyze the prospect company and return a JSON object with:\n")
	sb.WriteString(`{
  "qualificationScore": 85.5,
  "explanation": "Detailed explanation of why this prospect fits or doesn't fit the ICP",
  "status": "qualified",
  "enrichedData": {
    "companyName": "Extracted company name",
    "industry": "Detected industry",
    "companySize": "Estimated company size",
    "revenue": "Estimated revenue range",
    "location": "Company location",
    "businessModel": "Type of business model",
    "keyFeatures": ["Feature 1", "Feature 2"],
    "painPoints": ["Pain point 1", "Pain point 2"]
  }
}`)

	sb.WriteString(`

Scoring criteria:
- 90-100: Perfect match, highly qualified
- 70-89: Good match, qualified
- 50-69: Moderate match, needs review
- 30-49: Poor match, likely rejected
- 0-29: No match, rejected

Status should be:
- "qualified" for scores 70+
- "rejected" for scores below 50
- "pending" for scores 50-69

Be thorough in your analysis and provide specific reasons for the score.`)

	return sb.String()
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func jsonOr(v any, fallback string) string {
	b, err := json.Marshal(v)
	if err != nil || v == nil {
		return fallback
	}
	return string(b)
}
