package seed

import (
	_ "embed"
	"fmt"
	"strings"

	"qipu/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// CatalogEntry is a named row with an optional description.
type CatalogEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Catalog lists the tags and relationship labels a deployment starts with.
type Catalog struct {
	Tags   []CatalogEntry `yaml:"tags"`
	Labels []CatalogEntry `yaml:"labels"`
}

// LoadCatalog parses a YAML catalog. Names must be non-empty and unique
// within their section.
func LoadCatalog(raw []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for section, entries := range map[string][]CatalogEntry{"tags": cat.Tags, "labels": cat.Labels} {
		seen := make(map[string]struct{}, len(entries))
		for i, e := range entries {
			name := strings.TrimSpace(e.Name)
			if name == "" {
				return nil, fmt.Errorf("%s[%d]: name is required", section, i)
			}
			if len(name) > 50 {
				return nil, fmt.Errorf("%s[%d]: name %q exceeds 50 characters", section, i, name)
			}
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%s: duplicate name %q", section, name)
			}
			seen[name] = struct{}{}
			entries[i].Name = name
		}
	}
	return &cat, nil
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	cat, err := LoadCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return cat
}

// ApplyTags upserts the catalog's tags by name. Running it again only
// refreshes descriptions.
func ApplyTags(db *gorm.DB, cat *Catalog) error {
	for _, e := range cat.Tags {
		tag := models.Tag{Name: e.Name, Description: e.Description}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description"}),
		}).Create(&tag).Error
		if err != nil {
			return fmt.Errorf("seed tag %s: %w", e.Name, err)
		}
	}
	return nil
}

// ApplyLabels creates the catalog's relationship labels owned by ownerID.
// Labels whose name is already taken are left alone.
func ApplyLabels(db *gorm.DB, cat *Catalog, ownerID uint) error {
	for _, e := range cat.Labels {
		label := models.RelationshipLabel{Name: e.Name, Description: e.Description, UserID: ownerID}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&label).Error
		if err != nil {
			return fmt.Errorf("seed label %s: %w", e.Name, err)
		}
	}
	return nil
}
