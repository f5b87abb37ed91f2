package pipeline

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/jpeetla/executive-web-scraper/internal/extract"
)

// Target describes what a run looks for: the ordered query intents, the
// third-party hosts whose pages are worth scraping, the extraction template
// and how many results satisfy a run.
type Target struct {
	Name           string   `yaml:"name"`
	Intents        []string `yaml:"intents"`
	TrustedDomains []string `yaml:"trusted_domains"`
	Template       string   `yaml:"template"`
	MinResults     int      `yaml:"min_results"`
}

// defaultTrustedDomains are the directories and newswires whose company
// pages routinely list leadership.
var defaultTrustedDomains = []string{
	"cbinsights.com",
	"theorg.com",
	"crunchbase.com",
	"globenewswire.com",
	"prnewswire.com",
	"businesswire.com",
}

// ExecutiveTarget returns the default leadership target.
func ExecutiveTarget() Target {
	return Target{
		Name: "executives",
		Intents: []string{
			"leadership team OR board of directors",
			"CTO OR CEO OR Head of Engineering",
			"founders OR co-founders",
			"talent acquisition manager OR head of talent",
		},
		TrustedDomains: append([]string(nil), defaultTrustedDomains...),
		Template:       extract.TemplateWebpage,
		MinResults:     5,
	}
}

// TalentTarget looks for people and recruiting leadership first.
func TalentTarget() Target {
	return Target{
		Name: "talent",
		Intents: []string{
			"talent acquisition manager OR head of talent",
			"VP of People OR Chief People Officer",
			"recruiting team OR talent partner",
		},
		TrustedDomains: append([]string(nil), defaultTrustedDomains...),
		Template:       extract.TemplateWebpage,
		MinResults:     3,
	}
}

// BuiltinTargets returns the targets shipped with the binary.
func BuiltinTargets() []Target {
	return []Target{ExecutiveTarget(), TalentTarget()}
}

type targetsFile struct {
	Targets []Target `yaml:"targets"`
}

// LoadTargets reads additional targets from a YAML file.
func LoadTargets(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read targets %s", path)
	}

	var f targetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "pipeline: parse targets %s", path)
	}

	for i := range f.Targets {
		if err := f.Targets[i].validate(); err != nil {
			return nil, err
		}
	}
	return f.Targets, nil
}

func (t *Target) validate() error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return eris.New("pipeline: target without name")
	}
	if len(t.Intents) == 0 {
		return eris.Errorf("pipeline: target %q has no intents", t.Name)
	}
	if t.Template == "" {
		t.Template = extract.TemplateWebpage
	}
	if _, ok := extract.LookupTemplate(t.Template); !ok {
		return eris.Errorf("pipeline: target %q uses unknown template %q", t.Name, t.Template)
	}
	for i, d := range t.TrustedDomains {
		t.TrustedDomains[i] = NormalizeDomain(d)
	}
	return nil
}

// TargetByName finds a target by name. Later entries in extra override
// built-in targets with the same name.
func TargetByName(name string, extra []Target) (Target, error) {
	name = strings.TrimSpace(name)
	for i := len(extra) - 1; i >= 0; i-- {
		if strings.EqualFold(extra[i].Name, name) {
			return extra[i], nil
		}
	}
	for _, t := range BuiltinTargets() {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return Target{}, eris.Errorf("pipeline: unknown target %q", name)
}
