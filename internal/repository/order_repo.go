package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepository persists orders, their items and gateway payments
type OrderRepository interface {
	// CreateOrder inserts the order and its items in one transaction
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)
	GetOrderByReference(ctx context.Context, reference string) (*model.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)
	SetCheckout(ctx context.Context, orderID, reference, checkoutURL string) error
	// TransitionStatus moves an order from one status to another. It reports
	// false when the order was not in the expected status.
	TransitionStatus(ctx context.Context, orderID, from, to string) (bool, error)
	// MarkPaid moves a pending order to paid and stamps paid_at. It reports
	// false when the order was already settled.
	MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (bool, error)
	RecordPayment(ctx context.Context, p *model.Payment) error
	// ExpireStale expires pending orders created before cutoff
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type orderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) OrderRepository {
	return &orderRepo{pool: pool}
}

const orderColumns = `id, user_id, status, currency, country, gateway, payment_method, coupon_code,
	subtotal_usd_cents, discount_usd_cents, amount, fee, total, exchange_rate, gateway_reference,
	checkout_url, created_at, updated_at, paid_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.Currency, &o.Country, &o.Gateway, &o.PaymentMethod, &o.CouponCode,
		&o.SubtotalUSDCents, &o.DiscountUSDCents, &o.Amount, &o.Fee, &o.Total, &o.ExchangeRate,
		&o.GatewayReference, &o.CheckoutURL, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) CreateOrder(ctx context.Context, o *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (user_id, status, currency, country, gateway, payment_method, coupon_code,
			subtotal_usd_cents, discount_usd_cents, amount, fee, total, exchange_rate, gateway_reference, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		o.UserID, o.Status, o.Currency, o.Country, o.Gateway, o.PaymentMethod, o.CouponCode,
		o.SubtotalUSDCents, o.DiscountUSDCents, o.Amount, o.Fee, o.Total, o.ExchangeRate, o.GatewayReference, o.PaidAt,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting order for user %s: %w", o.UserID, err)
	}

	batch := &pgx.Batch{}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		it := o.Items[i]
		batch.Queue(
			`INSERT INTO order_items (order_id, course_id, title, price_usd_cents) VALUES ($1, $2, $3, $4)`,
			it.OrderID, it.CourseID, it.Title, it.PriceUSDCents,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting items for order %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order %s: %w", o.ID, err)
	}
	return nil
}

func (r *orderRepo) loadItems(ctx context.Context, o *model.Order) error {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, course_id, title, price_usd_cents FROM order_items WHERE order_id = $1 ORDER BY title`, o.ID)
	if err != nil {
		return fmt.Errorf("getting items for order %s: %w", o.ID, err)
	}
	defer rows.Close()

	o.Items = []model.OrderItem{}
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.OrderID, &it.CourseID, &it.Title, &it.PriceUSDCents); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (r *orderRepo) getOne(ctx context.Context, where string, arg string) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting order by %s: %w", where, err)
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepo) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	return r.getOne(ctx, `id = $1`, orderID)
}

func (r *orderRepo) GetOrderByReference(ctx context.Context, reference string) (*model.Order, error) {
	return r.getOne(ctx, `gateway_reference = $1`, reference)
}

func (r *orderRepo) ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %s: %w", userID, err)
	}
	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepo) SetCheckout(ctx context.Context, orderID, reference, checkoutURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET gateway_reference = $2, checkout_url = $3, updated_at = NOW() WHERE id = $1`,
		orderID, reference, checkoutURL)
	if err != nil {
		return fmt.Errorf("setting checkout for order %s: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepo) TransitionStatus(ctx context.Context, orderID, from, to string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		orderID, from, to)
	if err != nil {
		return false, fmt.Errorf("moving order %s from %s to %s: %w", orderID, from, to, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepo) MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = 'paid', paid_at = $2, updated_at = NOW() WHERE id = $1 AND status = 'pending'`,
		orderID, paidAt)
	if err != nil {
		return false, fmt.Errorf("marking order %s paid: %w", orderID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepo) RecordPayment(ctx context.Context, p *model.Payment) error {
	var raw interface{}
	if len(p.Raw) > 0 {
		raw = p.Raw
	}
	query := `
		INSERT INTO payments (order_id, gateway, reference, amount, currency, status, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, p.OrderID, p.Gateway, p.Reference, p.Amount, p.Currency, p.Status, raw).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording payment for order %s: %w", p.OrderID, err)
	}
	return nil
}

func (r *orderRepo) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = 'expired', updated_at = NOW() WHERE status = 'pending' AND created_at < $1`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("expiring pending orders: %w", err)
	}
	return tag.RowsAffected(), nil
}
