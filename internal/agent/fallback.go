package agent

import (
	"text/template"

	"github.com/sakif/intellicrawl/internal/model"
)

const demoFooter = `

---
✨ Generated by IntelliCrawl AI Agent (Demo Mode)`

// Offline answers. Lines whose value is missing are dropped rather than
// left blank.
var fallbacks = map[model.AgentType]*template.Template{
	model.AgentEmail: template.Must(template.New("email").Funcs(funcs).Parse(
		`Subject: Exciting Opportunity for {{.Name}}

Hi {{.Name}},

I came across your GitHub profile (@{{.GitHubUsername}}) and was impressed by your expertise in {{join (first 2 .Languages) " and "}}.

We're currently looking for talented developers to join our team, and your background in {{join .Languages ", "}} caught our attention.

Would you be interested in learning more about this opportunity? I'd love to schedule a brief call to discuss how your skills could contribute to our innovative projects.

Looking forward to hearing from you!

Best regards,
[Your Name]
[Your Company]` + demoFooter)),

	model.AgentAnalyze: template.Must(template.New("analyze").Funcs(funcs).Parse(
		`🎯 **TECHNICAL ASSESSMENT**
Primary expertise: {{join (first 3 .Languages) ", "}}
{{- if .Location}}
Location: {{.Location}}{{end}}
{{- if .Company}}
Current company: {{.Company}}{{end}}

📊 **EXPERIENCE LEVEL**
{{- if has .PublicRepos}}
Public repositories: {{count .PublicRepos ""}}{{end}}
{{- if has .Followers}}
GitHub followers: {{count .Followers ""}}{{end}}
Community engagement: Active open source contributor

💼 **CAREER INSIGHTS**
{{or .Bio "Profile suggests strong technical background"}}
Interested in: Modern development practices
Ideal for: Teams working with {{join (first 2 .Languages) " and "}}

🚀 **RECRUITMENT STRATEGY**
Approach: Technical expertise focus
Selling points: {{join .Languages ", "}} opportunities
Consider: Remote work options, technical challenges` + demoFooter)),

	model.AgentSimilar: template.Must(template.New("similar").Funcs(funcs).Parse(
		`🔍 **SEARCH KEYWORDS**
Languages: {{join .Languages ", "}}
Technologies: Modern frameworks, cloud platforms
{{- if .Location}}
Geographic focus: {{.Location}} area{{end}}

📍 **LOCATION STRATEGY**
{{if .Location}}Primary: {{.Location}}{{else}}Focus: Major tech hubs{{end}}
Consider: Remote-friendly candidates
Time zones: Compatible with team

🏢 **COMPANY TYPES**
{{if .Company}}Similar to: {{.Company}}{{else}}Target: Tech companies, startups{{end}}
Size: Mid-size to enterprise
Culture: Developer-focused environments

💡 **PROFILE PATTERNS**
GitHub activity: Regular commits, diverse projects
Portfolio indicators: {{join .Languages ", "}} projects
Community: Active in open source

🎯 **SEARCH QUERIES**
"{{join (first 2 .Languages) " "}} developer"
"{{primary .Languages}} engineer{{if .Location}} {{.Location}}{{end}}"
GitHub: "language:{{lower (primary .Languages)}}"` + demoFooter)),
}

// Fallback renders the offline answer for t.
func Fallback(t model.AgentType, dev model.Developer) (string, error) {
	return render(fallbacks, t, dev)
}
