package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo ledger de reservas sobre la tabla stock_reservations.
// UNIQUE (session_id, variant_id) garantiza una sola reserva por par.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, session_id, variant_id, quantity, expires_at, user_id, created_at, updated_at`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	if err := row.Scan(
		&res.ID, &res.SessionID, &res.VariantID, &res.Quantity,
		&res.ExpiresAt, &res.UserID, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepo) ListActiveByVariant(ctx context.Context, variantID string, now time.Time) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM stock_reservations
		WHERE variant_id = $1 AND expires_at > $2
		ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, variantID, now)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.NewValidationError("variantId", "debe ser un UUID válido")
		}
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	defer rows.Close()

	var list []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// Upsert inserta la reserva o reemplaza cantidad y vencimiento de la existente para el par.
// user_id solo se sobrescribe si viene informado.
func (r *ReservationRepo) Upsert(ctx context.Context, res *entity.Reservation) (*entity.Reservation, error) {
	query := `
		INSERT INTO stock_reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id, variant_id)
		DO UPDATE SET
			quantity   = EXCLUDED.quantity,
			expires_at = EXCLUDED.expires_at,
			user_id    = COALESCE(EXCLUDED.user_id, stock_reservations.user_id),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + reservationColumns
	saved, err := scanReservation(r.q.QueryRow(ctx, query,
		res.ID, res.SessionID, res.VariantID, res.Quantity,
		res.ExpiresAt, res.UserID, res.CreatedAt, res.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert reservation: %w", err)
	}
	return saved, nil
}

func (r *ReservationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.delete(ctx, "delete expired reservations",
		`DELETE FROM stock_reservations WHERE expires_at <= $1`, now)
}

func (r *ReservationRepo) DeleteExpiredByVariant(ctx context.Context, variantID string, now time.Time) (int64, error) {
	return r.delete(ctx, "delete expired reservations by variant",
		`DELETE FROM stock_reservations WHERE variant_id = $1 AND expires_at <= $2`, variantID, now)
}

func (r *ReservationRepo) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	return r.delete(ctx, "delete reservations by session",
		`DELETE FROM stock_reservations WHERE session_id = $1`, sessionID)
}

func (r *ReservationRepo) DeleteBySessionAndVariant(ctx context.Context, sessionID, variantID string) (int64, error) {
	return r.delete(ctx, "delete reservation",
		`DELETE FROM stock_reservations WHERE session_id = $1 AND variant_id = $2`, sessionID, variantID)
}

func (r *ReservationRepo) DeleteByVariant(ctx context.Context, variantID string) (int64, error) {
	return r.delete(ctx, "delete reservations by variant",
		`DELETE FROM stock_reservations WHERE variant_id = $1`, variantID)
}

func (r *ReservationRepo) delete(ctx context.Context, op, query string, args ...any) (int64, error) {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return 0, domain.NewValidationError("variantId", "debe ser un UUID válido")
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected(), nil
}

// Stats cuenta activas, vencidas y total en una sola lectura.
func (r *ReservationRepo) Stats(ctx context.Context, now time.Time) (*entity.ReservationStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE expires_at >  $1),
			COUNT(*) FILTER (WHERE expires_at <= $1),
			COUNT(*)
		FROM stock_reservations`
	var s entity.ReservationStats
	if err := r.q.QueryRow(ctx, query, now).Scan(&s.Active, &s.Expired, &s.Total); err != nil {
		return nil, fmt.Errorf("reservation stats: %w", err)
	}
	return &s, nil
}
