package notify

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"twende/internal/types"
)

var ErrNotFound = errors.New("notification not found")

type Store interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID types.ID, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID types.ID) (bool, error)
}

type Service struct {
	store Store
	log   *logrus.Logger
}

func NewService(store Store, log *logrus.Logger) *Service {
	return &Service{store: store, log: log}
}

// Send stores a notification for the recipient. Errors are absorbed here;
// the ride lifecycle must not roll back because a notification write failed.
func (s *Service) Send(ctx context.Context, m Message) {
	n := &Notification{
		ID:        types.NewID(),
		Recipient: m.Recipient,
		Sender:    m.Sender,
		RideID:    m.RideID,
		Type:      m.Type,
		Title:     m.Title,
		Body:      m.Body,
	}
	if err := s.store.Create(ctx, n); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"recipient": m.Recipient,
			"type":      m.Type,
		}).Warn("notification write failed")
	}
}

func (s *Service) ListForUser(ctx context.Context, userID types.ID, unreadOnly bool) ([]*Notification, error) {
	return s.store.ListForUser(ctx, userID, unreadOnly)
}

// MarkRead flips a notification to read. Only the recipient may do so.
func (s *Service) MarkRead(ctx context.Context, id, userID types.ID) error {
	ok, err := s.store.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
