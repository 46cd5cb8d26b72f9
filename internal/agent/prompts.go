// Package agent builds the recruiter-assist prompts, renders the offline
// template answers, and talks to the completion provider.
//
// Three workflows exist: a personalised outreach email, a profile
// analysis, and a strategy for finding similar candidates. Each has a
// prompt for the model and a deterministic template used when no model
// is configured.
package agent

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/sakif/intellicrawl/internal/model"
)

// Messages returned in place of a completion.
const (
	UnavailableMessage = "AI service temporarily unavailable. Please try again later."
	EmptyMessage       = "No response generated"
)

var funcs = template.FuncMap{
	"join": func(xs []string, sep string) string { return strings.Join(xs, sep) },
	"first": func(n int, xs []string) []string {
		if len(xs) < n {
			return xs
		}
		return xs[:n]
	},
	// primary is the first language, or a generic term when there are none.
	"primary": func(xs []string) string {
		if len(xs) == 0 {
			return "software"
		}
		return xs[0]
	},
	// count renders an optional count; nil and zero both read as missing.
	"count": func(n *int, def string) string {
		if n == nil || *n == 0 {
			return def
		}
		return strconv.Itoa(*n)
	},
	"has":   func(n *int) bool { return n != nil && *n > 0 },
	"lower": strings.ToLower,
}

var prompts = map[model.AgentType]*template.Template{
	model.AgentEmail: template.Must(template.New("email").Funcs(funcs).Parse(
		`You are an expert recruitment email writer. Generate a personalized, professional recruitment email for the following developer:

Name: {{.Name}}
GitHub: @{{.GitHubUsername}}
Location: {{or .Location "Not specified"}}
Languages: {{join .Languages ", "}}
Company: {{or .Company "Not specified"}}
Bio: {{or .Bio "Not provided"}}

Write a compelling recruitment email that:
1. Is personalized and mentions specific skills/projects
2. Is professional but friendly
3. Clearly states we're interested in their skills
4. Includes a clear call-to-action
5. Is concise (under 200 words)
6. Uses their actual name and specific technologies they use

Return only the email content, including subject line.`)),

	model.AgentAnalyze: template.Must(template.New("analyze").Funcs(funcs).Parse(
		`You are an expert technical recruiter and developer profile analyst. Analyze this developer's profile and provide insights:

Name: {{.Name}}
GitHub: @{{.GitHubUsername}}
Location: {{or .Location "Not specified"}}
Languages: {{join .Languages ", "}}
Followers: {{count .Followers "Not specified"}}
Public Repos: {{count .PublicRepos "Not specified"}}
Company: {{or .Company "Not specified"}}
Bio: {{or .Bio "Not provided"}}

Provide a detailed analysis including:

🎯 **TECHNICAL ASSESSMENT**
- Primary expertise areas
- Technology stack depth
- Notable strengths

📊 **EXPERIENCE LEVEL**
- Estimated seniority level
- Open source involvement
- Community engagement

💼 **CAREER INSIGHTS**
- Current role/company fit
- Potential career interests
- Ideal team/project types

🚀 **RECRUITMENT STRATEGY**
- Best approach for outreach
- Key selling points to emphasize
- Potential concerns to address

Keep analysis under 300 words but detailed and actionable.`)),

	model.AgentSimilar: template.Must(template.New("similar").Funcs(funcs).Parse(
		`You are an expert at identifying developer talent patterns. Based on this developer's profile, suggest what to look for in similar candidates:

Name: {{.Name}}
GitHub: @{{.GitHubUsername}}
Languages: {{join .Languages ", "}}
Location: {{or .Location "Not specified"}}
Company: {{or .Company "Not specified"}}
Bio: {{or .Bio "Not provided"}}

Generate a comprehensive search strategy for finding similar developers:

🔍 **SEARCH KEYWORDS**
- Primary programming languages to target
- Framework/technology combinations
- Industry/domain keywords

📍 **LOCATION STRATEGY**
- Geographic regions to focus on
- Remote work considerations
- Time zone preferences

🏢 **COMPANY TYPES**
- Similar company sizes/types
- Industry sectors to target
- Career stage indicators

💡 **PROFILE PATTERNS**
- GitHub activity patterns to look for
- Portfolio/project indicators
- Community involvement signs

🎯 **SEARCH QUERIES**
- Specific search strings for GitHub
- LinkedIn search parameters
- Additional platform recommendations

Provide actionable search strategy under 250 words.`)),
}

// Prompt renders the model prompt for t.
func Prompt(t model.AgentType, dev model.Developer) (string, error) {
	return render(prompts, t, dev)
}

func render(set map[model.AgentType]*template.Template, t model.AgentType, dev model.Developer) (string, error) {
	tmpl, ok := set[t]
	if !ok {
		return "", fmt.Errorf("agent: unknown type %q", t)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, dev); err != nil {
		return "", fmt.Errorf("agent: rendering %s: %w", t, err)
	}
	return b.String(), nil
}
