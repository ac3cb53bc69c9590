package seeder

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/estate-backend/internal/domain"
	"github.com/heartmarshall/estate-backend/internal/service/listing"
)

//go:embed listings.yaml
var defaultDataset []byte

type datasetFile struct {
	Listings []datasetListing `yaml:"listings"`
}

type datasetListing struct {
	Slug        string         `yaml:"slug"`
	Title       string         `yaml:"title"`
	Description *string        `yaml:"description"`
	Location    *string        `yaml:"location"`
	Region      string         `yaml:"region"`
	Type        string         `yaml:"type"`
	Price       int64          `yaml:"price"`
	Bedrooms    *int           `yaml:"bedrooms"`
	Bathrooms   *int           `yaml:"bathrooms"`
	Area        *int           `yaml:"area"`
	Status      string         `yaml:"status"`
	Featured    bool           `yaml:"featured"`
	Images      []datasetImage `yaml:"images"`
	Features    []string       `yaml:"features"`
}

type datasetImage struct {
	URL     string  `yaml:"url"`
	Alt     *string `yaml:"alt"`
	Primary bool    `yaml:"primary"`
}

// LoadDataset reads listing drafts from path, or the embedded demo dataset
// when path is empty.
func LoadDataset(path string) ([]listing.Draft, error) {
	data := defaultDataset
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read dataset: %w", err)
		}
		data = b
	}
	return parseDataset(data)
}

func parseDataset(data []byte) ([]listing.Draft, error) {
	var f datasetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	drafts := make([]listing.Draft, 0, len(f.Listings))
	for _, l := range f.Listings {
		images := make([]domain.ImageRef, 0, len(l.Images))
		for _, im := range l.Images {
			images = append(images, domain.ImageRef{URL: im.URL, Alt: im.Alt, IsPrimary: im.Primary})
		}
		drafts = append(drafts, listing.Draft{
			Slug:        l.Slug,
			Title:       l.Title,
			Description: l.Description,
			Location:    l.Location,
			Region:      l.Region,
			Type:        l.Type,
			Price:       l.Price,
			Bedrooms:    l.Bedrooms,
			Bathrooms:   l.Bathrooms,
			Area:        l.Area,
			Status:      l.Status,
			Featured:    l.Featured,
			Images:      images,
			Features:    l.Features,
		})
	}
	return drafts, nil
}
