// Package mirror replicates local writes into the remote system of record
// (Postgres) and serves remote-first reads. It is best effort by contract:
// the gateway absorbs every error it returns, so the methods here report
// failures honestly and leave the swallowing to the caller.
package mirror

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"urban-bites/internal/domain/models"
	xerrors "urban-bites/internal/xpkg/errors"
	"urban-bites/internal/xpkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Postgres struct {
	pool  *pgxpool.Pool
	mylog logger.Logger
}

// Connect dials the remote, pings it, and applies schema migrations.
func Connect(ctx context.Context, dsn string, mylog logger.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	mylog.Action("mirror_connected").Info("Connected to remote system of record")
	return &Postgres{pool: pool, mylog: mylog.With("component", "mirror")}, nil
}

func runMigrations(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// migrateURL rewrites the postgres DSN scheme for the migrate pgx/v5 driver.
func migrateURL(dsn string) string {
	if rest, ok := strings.CutPrefix(dsn, "postgresql://"); ok {
		return "pgx5://" + rest
	}
	if rest, ok := strings.CutPrefix(dsn, "postgres://"); ok {
		return "pgx5://" + rest
	}
	return dsn
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// InsertOrder mirrors a created order. Upsert, so a retried outbox record is
// harmless.
func (p *Postgres) InsertOrder(ctx context.Context, order models.Order) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO orders (
			id, table_id, order_number, customer_name, status,
			subtotal, tax, service_charge, total,
			special_instructions, created_at, updated_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at
	`,
		order.ID, order.TableID, order.OrderNumber, order.CustomerName, order.Status,
		order.Subtotal, order.Tax, order.ServiceCharge, order.Total,
		order.SpecialInstructions, order.CreatedAt, order.UpdatedAt, order.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert order: %v", xerrors.ErrRemoteWriteFailed, err)
	}
	return nil
}

func (p *Postgres) InsertItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", xerrors.ErrRemoteWriteFailed, err)
	}
	defer tx.Rollback(ctx)

	for _, item := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (
				id, order_id, menu_item_id, menu_item_name,
				quantity, unit_price, special_instructions, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
		`,
			item.ID, item.OrderID, nullable(item.MenuItemID), item.MenuItemName,
			item.Quantity, item.UnitPrice, item.SpecialInstructions, item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("%w: insert item: %v", xerrors.ErrRemoteWriteFailed, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", xerrors.ErrRemoteWriteFailed, err)
	}
	return nil
}

// UpdateOrderStatus mirrors a status transition as a partial update of
// status, updated_at and completed_at only.
func (p *Postgres) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, updatedAt time.Time, completedAt *time.Time) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = $3, completed_at = $4
		WHERE id = $1
	`, orderID, status, updatedAt, completedAt)
	if err != nil {
		return fmt.Errorf("%w: update status: %v", xerrors.ErrRemoteWriteFailed, err)
	}
	return nil
}

func (p *Postgres) FetchRestaurant(ctx context.Context) (models.Restaurant, error) {
	var r models.Restaurant
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, slug, cuisine_type, tagline, address, phone, email,
		       theme_primary_color, theme_accent_color, is_active, created_at, updated_at
		FROM restaurants
		WHERE is_active
		LIMIT 1
	`).Scan(
		&r.ID, &r.Name, &r.Slug, &r.CuisineType, &r.Tagline, &r.Address, &r.Phone, &r.Email,
		&r.ThemePrimaryColor, &r.ThemeAccentColor, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return models.Restaurant{}, fmt.Errorf("%w: fetch restaurant: %v", xerrors.ErrRemoteUnavailable, err)
	}
	return r, nil
}

func (p *Postgres) FetchMenu(ctx context.Context) (models.Menu, error) {
	var menu models.Menu

	rows, err := p.pool.Query(ctx, `
		SELECT id, restaurant_id, name, description, display_order, is_active, created_at
		FROM menu_categories
		WHERE is_active
		ORDER BY display_order
	`)
	if err != nil {
		return models.Menu{}, fmt.Errorf("%w: fetch categories: %v", xerrors.ErrRemoteUnavailable, err)
	}
	defer rows.Close()
	for rows.Next() {
		var c models.MenuCategory
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Description, &c.DisplayOrder, &c.IsActive, &c.CreatedAt); err != nil {
			return models.Menu{}, fmt.Errorf("%w: scan category: %v", xerrors.ErrRemoteUnavailable, err)
		}
		menu.Categories = append(menu.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return models.Menu{}, fmt.Errorf("%w: fetch categories: %v", xerrors.ErrRemoteUnavailable, err)
	}

	itemRows, err := p.pool.Query(ctx, `
		SELECT id, category_id, name, description, price, allergens, dietary_tags,
		       is_available, prep_time_minutes, created_at
		FROM menu_items
		WHERE is_available
	`)
	if err != nil {
		return models.Menu{}, fmt.Errorf("%w: fetch items: %v", xerrors.ErrRemoteUnavailable, err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it models.MenuItem
		if err := itemRows.Scan(&it.ID, &it.CategoryID, &it.Name, &it.Description, &it.Price,
			&it.Allergens, &it.DietaryTags, &it.IsAvailable, &it.PrepTimeMinutes, &it.CreatedAt); err != nil {
			return models.Menu{}, fmt.Errorf("%w: scan item: %v", xerrors.ErrRemoteUnavailable, err)
		}
		menu.Items = append(menu.Items, it)
	}
	if err := itemRows.Err(); err != nil {
		return models.Menu{}, fmt.Errorf("%w: fetch items: %v", xerrors.ErrRemoteUnavailable, err)
	}

	return menu, nil
}

// FetchTableByToken resolves a QR token. A missing row is ErrTableNotFound,
// not a remote failure, so the gateway can reject unknown tokens instead of
// falling back.
func (p *Postgres) FetchTableByToken(ctx context.Context, token string) (models.Table, error) {
	var t models.Table
	err := p.pool.QueryRow(ctx, `
		SELECT id, restaurant_id, table_number, qr_token, capacity, status, created_at
		FROM tables
		WHERE qr_token = $1
	`, token).Scan(&t.ID, &t.RestaurantID, &t.TableNumber, &t.QRToken, &t.Capacity, &t.Status, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Table{}, xerrors.ErrTableNotFound
	}
	if err != nil {
		return models.Table{}, fmt.Errorf("%w: fetch table: %v", xerrors.ErrRemoteUnavailable, err)
	}
	return t, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
