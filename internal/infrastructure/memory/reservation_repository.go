package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo ledger en memoria, indexado por (session, variante).
type ReservationRepo struct {
	access accessFunc
}

func (r *ReservationRepo) ListActiveByVariant(ctx context.Context, variantID string, now time.Time) ([]*entity.Reservation, error) {
	var out []*entity.Reservation
	err := r.access(ctx, func(st *state) error {
		for _, res := range st.reservations {
			if res.VariantID == variantID && res.IsActive(now) {
				c := copyReservation(res)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *ReservationRepo) Upsert(ctx context.Context, res *entity.Reservation) (*entity.Reservation, error) {
	var saved entity.Reservation
	err := r.access(ctx, func(st *state) error {
		key := reservationKey{sessionID: res.SessionID, variantID: res.VariantID}
		if existing, ok := st.reservations[key]; ok {
			existing.Quantity = res.Quantity
			existing.ExpiresAt = res.ExpiresAt
			existing.UpdatedAt = res.UpdatedAt
			if res.UserID != nil {
				u := *res.UserID
				existing.UserID = &u
			}
			st.reservations[key] = existing
		} else {
			st.reservations[key] = copyReservation(*res)
		}
		saved = copyReservation(st.reservations[key])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *ReservationRepo) deleteWhere(ctx context.Context, match func(entity.Reservation) bool) (int64, error) {
	var n int64
	err := r.access(ctx, func(st *state) error {
		for k, res := range st.reservations {
			if match(res) {
				delete(st.reservations, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *ReservationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(ctx, func(res entity.Reservation) bool { return !res.IsActive(now) })
}

func (r *ReservationRepo) DeleteExpiredByVariant(ctx context.Context, variantID string, now time.Time) (int64, error) {
	return r.deleteWhere(ctx, func(res entity.Reservation) bool {
		return res.VariantID == variantID && !res.IsActive(now)
	})
}

func (r *ReservationRepo) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	return r.deleteWhere(ctx, func(res entity.Reservation) bool { return res.SessionID == sessionID })
}

func (r *ReservationRepo) DeleteBySessionAndVariant(ctx context.Context, sessionID, variantID string) (int64, error) {
	return r.deleteWhere(ctx, func(res entity.Reservation) bool {
		return res.SessionID == sessionID && res.VariantID == variantID
	})
}

func (r *ReservationRepo) DeleteByVariant(ctx context.Context, variantID string) (int64, error) {
	return r.deleteWhere(ctx, func(res entity.Reservation) bool { return res.VariantID == variantID })
}

func (r *ReservationRepo) Stats(ctx context.Context, now time.Time) (*entity.ReservationStats, error) {
	var s entity.ReservationStats
	err := r.access(ctx, func(st *state) error {
		for _, res := range st.reservations {
			if res.IsActive(now) {
				s.Active++
			} else {
				s.Expired++
			}
		}
		s.Total = int64(len(st.reservations))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}
