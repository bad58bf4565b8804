package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool used by the Postgres source.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads catalog records from the tables created by the
// embedded migrations.
type PostgresSource struct {
	DB querier
}

// NewPostgresSource wraps a pgx pool.
func NewPostgresSource(pool *pgxpool.Pool) PostgresSource {
	return PostgresSource{DB: pool}
}

// Load reads every record and builds a validated catalog.
func (s PostgresSource) Load(ctx context.Context) (*Catalog, error) {
	recs, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	return Build(recs)
}

// Records reads the raw records without validating them.
func (s PostgresSource) Records(ctx context.Context) (Records, error) {
	if s.DB == nil {
		return Records{}, fmt.Errorf("catalog postgres source not configured")
	}
	var (
		recs Records
		err  error
	)
	if recs.Departments, err = s.departments(ctx); err != nil {
		return Records{}, fmt.Errorf("load departments: %w", err)
	}
	if recs.HeroBanners, err = s.heroBanners(ctx); err != nil {
		return Records{}, fmt.Errorf("load hero banners: %w", err)
	}
	if recs.PromoBanners, err = s.promoBanners(ctx); err != nil {
		return Records{}, fmt.Errorf("load promo banners: %w", err)
	}
	if recs.Sections, err = s.products(ctx); err != nil {
		return Records{}, fmt.Errorf("load products: %w", err)
	}
	return recs, nil
}

func (s PostgresSource) departments(ctx context.Context) ([]DepartmentRecord, error) {
	rows, err := s.DB.Query(ctx, `SELECT name, subcategories FROM departments ORDER BY position`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (DepartmentRecord, error) {
		var d DepartmentRecord
		err := row.Scan(&d.Name, &d.Subcategories)
		return d, err
	})
}

func (s PostgresSource) heroBanners(ctx context.Context) ([]HeroBannerRecord, error) {
	rows, err := s.DB.Query(ctx, `SELECT image, alt, badge, title, discount, button_text FROM hero_banners ORDER BY position`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (HeroBannerRecord, error) {
		var h HeroBannerRecord
		err := row.Scan(&h.Image, &h.Alt, &h.Badge, &h.Title, &h.Discount, &h.ButtonText)
		return h, err
	})
}

func (s PostgresSource) promoBanners(ctx context.Context) ([]PromoBannerRecord, error) {
	rows, err := s.DB.Query(ctx, `SELECT image, alt FROM promo_banners ORDER BY position`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (PromoBannerRecord, error) {
		var p PromoBannerRecord
		err := row.Scan(&p.Image, &p.Alt)
		return p, err
	})
}

type productRow struct {
	Section string
	Record  ProductRecord
}

func (s PostgresSource) products(ctx context.Context) (map[Section][]ProductRecord, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT section, id, name, image, price, COALESCE(original_price, ''), reviews
		FROM products
		ORDER BY section, position`)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (productRow, error) {
		var r productRow
		err := row.Scan(&r.Section, &r.Record.ID, &r.Record.Name, &r.Record.Image, &r.Record.Price, &r.Record.OriginalPrice, &r.Record.Reviews)
		return r, err
	})
	if err != nil {
		return nil, err
	}
	out := make(map[Section][]ProductRecord)
	for _, it := range items {
		section := Section(it.Section)
		out[section] = append(out[section], it.Record)
	}
	return out, nil
}

// Seed replaces the catalog tables with recs inside a single transaction.
func Seed(ctx context.Context, pool *pgxpool.Pool, recs Records) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM products`,
			`DELETE FROM promo_banners`,
			`DELETE FROM hero_banners`,
			`DELETE FROM departments`,
		} {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("clear catalog: %w", err)
			}
		}
		batch := &pgx.Batch{}
		for i, d := range recs.Departments {
			subs := d.Subcategories
			if subs == nil {
				subs = []string{}
			}
			batch.Queue(`INSERT INTO departments (position, name, subcategories) VALUES ($1, $2, $3)`, i, d.Name, subs)
		}
		for i, h := range recs.HeroBanners {
			batch.Queue(`INSERT INTO hero_banners (position, image, alt, badge, title, discount, button_text) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				i, h.Image, h.Alt, h.Badge, h.Title, h.Discount, h.ButtonText)
		}
		for i, p := range recs.PromoBanners {
			batch.Queue(`INSERT INTO promo_banners (position, image, alt) VALUES ($1, $2, $3)`, i, p.Image, p.Alt)
		}
		for _, section := range Sections() {
			for i, p := range recs.Sections[section] {
				var original *string
				if p.OriginalPrice != "" {
					v := p.OriginalPrice
					original = &v
				}
				batch.Queue(`INSERT INTO products (id, section, position, name, image, price, original_price, reviews) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
					p.ID, string(section), i, p.Name, p.Image, p.Price, original, p.Reviews)
			}
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert catalog: %w", err)
		}
		return nil
	})
}
