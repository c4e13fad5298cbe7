package tool

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// ProductRecord is one entry in the canned affiliate product catalog.
type ProductRecord struct {
	Name           string   `yaml:"name"`
	Category       string   `yaml:"category"`
	Price          float64  `yaml:"price"`
	CommissionRate float64  `yaml:"commission_rate"`
	Rating         float64  `yaml:"rating"`
	Merchant       string   `yaml:"merchant"`
	Tags           []string `yaml:"tags"`
}

// AlertRecord is one canned alert fixture.
type AlertRecord struct {
	Type     string   `yaml:"type"`     // stock_alerts | price_alerts | performance_alerts
	Priority string   `yaml:"priority"` // low | medium | high | critical
	Title    string   `yaml:"title"`
	Message  string   `yaml:"message"`
	Products []string `yaml:"products,omitempty"` // affected products; empty = applies to all
}

type productFile struct {
	Products []ProductRecord `yaml:"products"`
}

type alertFile struct {
	Alerts []AlertRecord `yaml:"alerts"`
}

var (
	loadOnce sync.Once
	loadErr  error
	catalog  []ProductRecord
	fixtures []AlertRecord
)

func loadDatasets() error {
	loadOnce.Do(func() {
		var pf productFile
		if loadErr = unmarshalFile("data/products.yaml", &pf); loadErr != nil {
			return
		}
		catalog = pf.Products

		var af alertFile
		if loadErr = unmarshalFile("data/alerts.yaml", &af); loadErr != nil {
			return
		}
		fixtures = af.Alerts
	})
	return loadErr
}

func unmarshalFile(path string, out any) error {
	data, err := dataFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read dataset %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return nil
}

// ProductCatalog returns the canned product catalog.
func ProductCatalog() ([]ProductRecord, error) {
	if err := loadDatasets(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// AlertFixtures returns the canned alert set.
func AlertFixtures() ([]AlertRecord, error) {
	if err := loadDatasets(); err != nil {
		return nil, err
	}
	return fixtures, nil
}
