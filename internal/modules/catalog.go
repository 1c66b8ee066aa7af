package modules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/creatorlab/labengine/internal/model"
	"github.com/creatorlab/labengine/internal/provider"
	"github.com/creatorlab/labengine/internal/registry"
	"github.com/creatorlab/labengine/internal/template"
)

// Catalog is a YAML-defined set of additional text labs.
type Catalog struct {
	Labs []LabSpec `yaml:"labs"`
}

// LabSpec declares one catalog lab. Template is the prompt body with
// {{content}}/{{context}} placeholders; it is registered under the lab id.
// Type selects the builder (text, image, or video); empty means text.
type LabSpec struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Type         string   `yaml:"type"`
	System       string   `yaml:"system"`
	Template     string   `yaml:"template"`
	Capabilities []string `yaml:"capabilities"`
}

// LoadCatalog parses a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, lab := range c.Labs {
		if lab.ID == "" {
			return nil, fmt.Errorf("catalog lab %d: missing id", i)
		}
		if lab.Template == "" {
			return nil, fmt.Errorf("catalog lab %s: missing template", lab.ID)
		}
		if lab.Type != "" && !model.ValidModuleTypes[model.ModuleType(lab.Type)] {
			return nil, fmt.Errorf("catalog lab %s: invalid type %q", lab.ID, lab.Type)
		}
		switch model.ModuleType(lab.Type) {
		case "", model.TypeText, model.TypeImage, model.TypeVideo:
		default:
			return nil, fmt.Errorf("catalog lab %s: no builder for type %s", lab.ID, lab.Type)
		}
	}
	return &c, nil
}

// Register registers every catalog lab's template and module definition.
// Ids colliding with built-ins follow the registry's last-write-wins
// contract.
func (c *Catalog) Register(reg *registry.Registry, ts *template.Service, gen provider.Generator) {
	for _, lab := range c.Labs {
		name := lab.Name
		if name == "" {
			name = lab.ID
		}
		ts.Register(model.PromptTemplate{
			ID:        lab.ID,
			Content:   lab.Template,
			Variables: []string{"context", "content"},
		})
		switch model.ModuleType(lab.Type) {
		case model.TypeImage:
			reg.Register(ImageLab(lab.ID, name, lab.ID, ts, gen))
		case model.TypeVideo:
			reg.Register(VideoLab(lab.ID, name, lab.ID, ts, gen))
		default:
			reg.Register(TextLab(lab.ID, name, lab.ID, lab.System, ts, gen, lab.Capabilities))
		}
	}
}
