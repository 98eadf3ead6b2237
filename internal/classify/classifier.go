package classify

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Category string

const (
	ISM  Category = "ISM"
	ISPS Category = "ISPS"
	MLC  Category = "MLC"
	CICA Category = "CICA"

	// Other is the bucket for ship certificates outside every known category.
	Other Category = "Other"
)

//go:embed dictionaries.yaml
var dictionariesYAML []byte

type priorityRule struct {
	Keyword  string   `yaml:"keyword"`
	Category Category `yaml:"category"`
}

type categoryKeywords struct {
	Name     Category `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type dictionary struct {
	Priority   []priorityRule     `yaml:"priority"`
	Categories []categoryKeywords `yaml:"categories"`
}

type dictionaries struct {
	Audit   dictionary    `yaml:"audit"`
	Ship    dictionary    `yaml:"ship"`
	Issuers []issuerEntry `yaml:"issuers"`
}

// Classifier maps a certificate or report name onto a closed category set.
type Classifier struct {
	dict dictionary
}

var (
	loadOnce sync.Once
	loaded   dictionaries
)

func load() dictionaries {
	loadOnce.Do(func() {
		d, err := parseDictionaries(dictionariesYAML)
		if err != nil {
			panic(err)
		}
		loaded = d
	})
	return loaded
}

func parseDictionaries(data []byte) (dictionaries, error) {
	var d dictionaries
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("failed to parse classification dictionaries: %w", err)
	}
	if len(d.Audit.Categories) == 0 || len(d.Ship.Categories) == 0 || len(d.Issuers) == 0 {
		return d, fmt.Errorf("classification dictionaries are incomplete")
	}
	for _, dict := range []*dictionary{&d.Audit, &d.Ship} {
		for i := range dict.Priority {
			dict.Priority[i].Keyword = strings.ToUpper(dict.Priority[i].Keyword)
		}
		for i := range dict.Categories {
			for j, kw := range dict.Categories[i].Keywords {
				dict.Categories[i].Keywords[j] = strings.ToUpper(kw)
			}
		}
	}
	return d, nil
}

// Audit classifies ISM, ISPS, MLC and CICA documents.
func Audit() *Classifier {
	return &Classifier{dict: load().Audit}
}

// Ship classifies statutory and class certificates.
func Ship() *Classifier {
	return &Classifier{dict: load().Ship}
}

// Classify returns the first category whose keyword contains name or is
// contained in it. Priority keywords are checked first.
func (c *Classifier) Classify(name string) (Category, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}

	for _, p := range c.dict.Priority {
		if strings.Contains(n, p.Keyword) {
			return p.Category, true
		}
	}

	for _, cat := range c.dict.Categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(n, kw) || strings.Contains(kw, n) {
				return cat.Name, true
			}
		}
	}

	return "", false
}

// ClassifyOrOther maps an unknown name to Other.
func (c *Classifier) ClassifyOrOther(name string) Category {
	if cat, ok := c.Classify(name); ok {
		return cat
	}
	return Other
}

func IsAuditCategory(c Category) bool {
	switch c {
	case ISM, ISPS, MLC, CICA:
		return true
	}
	return false
}
