package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"notifsync/internal/domain"
	"notifsync/internal/store"
)

const uniqueViolation = "23505"

type Store struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) CreateNotification(ctx context.Context, n domain.Notification) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO notifications (id, external_id, channel, to_address, body, status, timestamp)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, n.ID, n.ExternalID, string(n.Channel), n.To, n.Body, string(n.Status), n.Timestamp)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateExternalID
		}
		return err
	}
	return nil
}

func (s *Store) FindByExternalID(ctx context.Context, externalID string) (domain.Notification, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, external_id, channel, to_address, body, status, timestamp
		FROM notifications WHERE external_id=$1
	`, externalID)

	var n domain.Notification
	err := row.Scan(&n.ID, &n.ExternalID, &n.Channel, &n.To, &n.Body, &n.Status, &n.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Notification{}, domain.ErrNotFound
		}
		return domain.Notification{}, err
	}
	return n, nil
}

func (s *Store) UpdateStatus(ctx context.Context, in store.StatusUpdate) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE notifications SET status=$2, timestamp=$3 WHERE external_id=$1
	`, in.ExternalID, in.Status, in.Timestamp)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
