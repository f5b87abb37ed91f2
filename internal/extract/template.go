package extract

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Template names.
const (
	TemplateWebpage = "webpage"
	TemplateRoster  = "roster"
)

// Template shapes the extraction prompt for one kind of input.
type Template struct {
	Name string
	// Example is the sample output shown to the model.
	Example string
	// LinkedIn asks the model to carry profile URLs through.
	LinkedIn bool
}

var templates = map[string]Template{
	TemplateWebpage: {
		Name:    TemplateWebpage,
		Example: `{"executives": [{"name": "John Doe", "title": "CEO"}, {"name": "Jane Smith", "title": "COO"}]}`,
	},
	TemplateRoster: {
		Name:     TemplateRoster,
		Example:  `{"executives": [{"name": "John Doe", "title": "CEO", "linkedin": "https://www.linkedin.com/in/johndoe"}, {"name": "Jane Smith", "title": "COO", "linkedin": "https://www.linkedin.com/in/janesmith"}]}`,
		LinkedIn: true,
	},
}

// LookupTemplate returns the named template.
func LookupTemplate(name string) (Template, bool) {
	t, ok := templates[name]
	return t, ok
}

const systemPrompt = "You read text about a company and return its top executives as JSON. Respond with JSON only."

// TitleRules lists the roles the model is allowed to return.
var TitleRules = []string{
	"Founders and co-founders (including titles like CEO, CTO, COO)",
	"Chief People Officer, VP of Talent Acquisition, VP of People, Chief of Staff, Talent Partner",
	"Head of Talent Acquisition, Head of People",
	"VP of Engineering, VP of Operations",
	`Any role that includes the keyword "Talent"`,
}

func (t Template) userPrompt(content string) string {
	fields := "names and titles"
	if t.LinkedIn {
		fields = "names, titles and LinkedIn profile URLs"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Below is text from a company's web presence. Extract the %s of the top executives who hold specific roles and return them as JSON shaped like this:\n", fields)
	b.WriteString(t.Example)
	b.WriteString("\n\nOnly include people with one of these titles:\n")
	for _, r := range TitleRules {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	b.WriteString("\nExclude science-specific or unrelated roles. Do not include titles containing words such as \"Scientific\", \"Biology\", \"Science\", \"Research\" or \"Laboratory\" unless the full title matches a role above.\n")
	b.WriteString("Return only the JSON object with no other text. If nobody qualifies, return {\"executives\": []}.\n\n")
	b.WriteString("Content:\n")
	b.WriteString(content)
	return b.String()
}

func (t Template) schema() *genai.Schema {
	props := map[string]*genai.Schema{
		"name":  {Type: genai.TypeString},
		"title": {Type: genai.TypeString},
	}
	required := []string{"name", "title"}
	if t.LinkedIn {
		props["linkedin"] = &genai.Schema{Type: genai.TypeString}
		required = append(required, "linkedin")
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"executives": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: props,
					Required:   required,
				},
			},
		},
		Required: []string{"executives"},
	}
}
