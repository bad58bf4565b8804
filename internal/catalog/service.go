package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// CardInstallments is the number of installments advertised on product cards.
const CardInstallments = 12

// Service assembles catalog DTOs for the public endpoints.
type Service struct {
	catalog *Catalog
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Catalog *Catalog
}

// NewService constructs a catalog service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	return &Service{catalog: cfg.Catalog}, nil
}

// Catalog returns the underlying read-only catalog.
func (s *Service) Catalog() *Catalog { return s.catalog }

// ProductDTO is the wire representation of a product.
type ProductDTO struct {
	ID                   int    `json:"id"`
	Name                 string `json:"name"`
	Image                string `json:"image"`
	Price                int64  `json:"price"`
	PriceDisplay         string `json:"priceDisplay"`
	OriginalPrice        *int64 `json:"originalPrice,omitempty"`
	OriginalPriceDisplay string `json:"originalPriceDisplay,omitempty"`
	Reviews              *int   `json:"reviews,omitempty"`
	Installments         int    `json:"installments"`
	InstallmentDisplay   string `json:"installmentDisplay"`
}

// DepartmentDTO is the wire representation of a department.
type DepartmentDTO struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories,omitempty"`
}

// HeroBannerDTO is the wire representation of a hero banner.
type HeroBannerDTO struct {
	Image      string `json:"image"`
	Alt        string `json:"alt"`
	Badge      string `json:"badge"`
	Title      string `json:"title"`
	Discount   string `json:"discount"`
	ButtonText string `json:"buttonText"`
}

// PromoBannerDTO is the wire representation of a promo tile.
type PromoBannerDTO struct {
	Image string `json:"image"`
	Alt   string `json:"alt"`
}

// Overview aggregates everything the page renders from the catalog.
type Overview struct {
	Departments  []DepartmentDTO           `json:"departments"`
	HeroBanners  []HeroBannerDTO           `json:"heroBanners"`
	PromoBanners []PromoBannerDTO          `json:"promoBanners"`
	Sections     map[Section][]ProductDTO `json:"sections"`
}

// NewProductDTO converts a product into its wire form.
func NewProductDTO(p Product) ProductDTO {
	dto := ProductDTO{
		ID:                 p.ID,
		Name:               p.Name,
		Image:              p.Image,
		Price:              p.Price,
		PriceDisplay:       pricing.Format(p.Price),
		Reviews:            p.Reviews,
		Installments:       CardInstallments,
		InstallmentDisplay: pricing.Format(pricing.Installment(p.Price, CardInstallments)),
	}
	if p.OriginalPrice != nil {
		original := *p.OriginalPrice
		dto.OriginalPrice = &original
		dto.OriginalPriceDisplay = pricing.Format(original)
	}
	return dto
}

// Overview returns the full page catalog.
func (s *Service) Overview() Overview {
	out := Overview{
		Sections: make(map[Section][]ProductDTO, len(Sections())),
	}
	for _, d := range s.catalog.Departments() {
		out.Departments = append(out.Departments, DepartmentDTO(d))
	}
	for _, h := range s.catalog.HeroBanners() {
		out.HeroBanners = append(out.HeroBanners, HeroBannerDTO(h))
	}
	for _, p := range s.catalog.PromoBanners() {
		out.PromoBanners = append(out.PromoBanners, PromoBannerDTO(p))
	}
	for _, section := range Sections() {
		products, err := s.catalog.Section(section)
		if err != nil {
			continue
		}
		out.Sections[section] = toDTOs(products)
	}
	return out
}

// Section returns the products of one section.
func (s *Service) Section(name string) ([]ProductDTO, error) {
	section := Section(name)
	if !section.Valid() {
		return nil, common.NewAppError("NOT_FOUND", "section not found", http.StatusNotFound, ErrNotFound)
	}
	products, err := s.catalog.Section(section)
	if err != nil {
		return nil, common.NewAppError("NOT_FOUND", "section not found", http.StatusNotFound, err)
	}
	return toDTOs(products), nil
}

// Product returns a single product by its id path parameter.
func (s *Service) Product(rawID string) (ProductDTO, error) {
	id, err := strconv.Atoi(rawID)
	if err == nil && id <= 0 {
		err = errors.New("must be positive")
	}
	if err != nil {
		return ProductDTO{}, common.NewAppError("BAD_REQUEST", "invalid product id", http.StatusBadRequest, fmt.Errorf("parse product id %q: %w", rawID, err))
	}
	p, err := s.catalog.Product(id)
	if err != nil {
		return ProductDTO{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
	}
	return NewProductDTO(p), nil
}

func toDTOs(products []Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductDTO(p))
	}
	return out
}
