package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	validator "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/toko-storefront/internal/pricing"
)

//go:embed data/catalog.yaml
var defaultData []byte

// ProductRecord is the on-disk shape of a product. Prices use the pt-BR
// display format and are converted to minor units by Build.
type ProductRecord struct {
	ID            int    `yaml:"id" json:"id" validate:"gt=0"`
	Name          string `yaml:"name" json:"name" validate:"required"`
	Image         string `yaml:"image" json:"image" validate:"required"`
	Price         string `yaml:"price" json:"price" validate:"required"`
	OriginalPrice string `yaml:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	Reviews       *int   `yaml:"reviews,omitempty" json:"reviews,omitempty" validate:"omitempty,gte=0"`
}

// DepartmentRecord is the on-disk shape of a department.
type DepartmentRecord struct {
	Name          string   `yaml:"name" json:"name" validate:"required"`
	Subcategories []string `yaml:"subcategories,omitempty" json:"subcategories,omitempty" validate:"dive,required"`
}

// HeroBannerRecord is the on-disk shape of a hero banner.
type HeroBannerRecord struct {
	Image      string `yaml:"image" json:"image" validate:"required"`
	Alt        string `yaml:"alt" json:"alt"`
	Badge      string `yaml:"badge" json:"badge"`
	Title      string `yaml:"title" json:"title" validate:"required"`
	Discount   string `yaml:"discount" json:"discount"`
	ButtonText string `yaml:"buttonText" json:"buttonText" validate:"required"`
}

// PromoBannerRecord is the on-disk shape of a promotional tile.
type PromoBannerRecord struct {
	Image string `yaml:"image" json:"image" validate:"required"`
	Alt   string `yaml:"alt" json:"alt"`
}

// Records groups every raw catalog record before validation.
type Records struct {
	Departments  []DepartmentRecord          `yaml:"departments" validate:"dive"`
	HeroBanners  []HeroBannerRecord          `yaml:"heroBanners" validate:"min=1,dive"`
	PromoBanners []PromoBannerRecord         `yaml:"promoBanners" validate:"dive"`
	Sections     map[Section][]ProductRecord `yaml:"sections" validate:"dive,dive"`
}

var validate = validator.New()

// DecodeYAML reads raw records from r, rejecting unknown fields.
func DecodeYAML(r io.Reader) (Records, error) {
	var recs Records
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&recs); err != nil {
		return Records{}, fmt.Errorf("decode catalog yaml: %w", err)
	}
	return recs, nil
}

// DefaultRecords returns the embedded sample records.
func DefaultRecords() (Records, error) {
	return DecodeYAML(bytes.NewReader(defaultData))
}

// Default builds the catalog from the embedded sample data.
func Default() (*Catalog, error) {
	recs, err := DefaultRecords()
	if err != nil {
		return nil, err
	}
	return Build(recs)
}

// LoadYAML decodes and builds a catalog from r.
func LoadYAML(r io.Reader) (*Catalog, error) {
	recs, err := DecodeYAML(r)
	if err != nil {
		return nil, err
	}
	return Build(recs)
}

// LoadFile builds a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// Build validates recs and converts them into an immutable Catalog. Prices
// that do not parse, duplicate product ids and unknown sections are rejected
// here so that nothing downstream has to re-check them.
func Build(recs Records) (*Catalog, error) {
	if err := validate.Struct(recs); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}

	for section := range recs.Sections {
		if !section.Valid() {
			return nil, fmt.Errorf("%w: unknown section %q", ErrInvalid, section)
		}
	}

	c := &Catalog{
		sections: make(map[Section][]Product, len(recs.Sections)),
		byID:     make(map[int]Product),
	}
	for _, d := range recs.Departments {
		c.departments = append(c.departments, Department{
			Name:          d.Name,
			Subcategories: append([]string(nil), d.Subcategories...),
		})
	}
	for _, h := range recs.HeroBanners {
		c.heroBanners = append(c.heroBanners, HeroBanner(h))
	}
	for _, p := range recs.PromoBanners {
		c.promoBanners = append(c.promoBanners, PromoBanner(p))
	}

	for _, section := range Sections() {
		records, ok := recs.Sections[section]
		if !ok {
			continue
		}
		products := make([]Product, 0, len(records))
		for _, rec := range records {
			if _, dup := c.byID[rec.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate product id %d", ErrInvalid, rec.ID)
			}
			product, err := buildProduct(rec)
			if err != nil {
				return nil, err
			}
			c.byID[product.ID] = product
			products = append(products, product)
		}
		c.sections[section] = products
	}
	return c, nil
}

func buildProduct(rec ProductRecord) (Product, error) {
	price, err := pricing.ParseLocalePrice(rec.Price)
	if err != nil {
		return Product{}, fmt.Errorf("%w: product %d price: %w", ErrInvalid, rec.ID, err)
	}
	product := Product{
		ID:    rec.ID,
		Name:  rec.Name,
		Image: rec.Image,
		Price: price,
	}
	if rec.OriginalPrice != "" {
		original, err := pricing.ParseLocalePrice(rec.OriginalPrice)
		if err != nil {
			return Product{}, fmt.Errorf("%w: product %d original price: %w", ErrInvalid, rec.ID, err)
		}
		product.OriginalPrice = &original
	}
	if rec.Reviews != nil {
		reviews := *rec.Reviews
		product.Reviews = &reviews
	}
	return product, nil
}
