package notify

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"twende/internal/types"
)

func TestSend_AbsorbsStoreFailure(t *testing.T) {
	store := &memStore{failCreate: errors.New("db down")}
	svc := NewService(store, discardLogger())

	// Must not panic and must not surface the error.
	svc.Send(context.Background(), Message{Recipient: "u1", Type: TypeSystem, Title: "t"})
	if len(store.items) != 0 {
		t.Fatalf("stored %d notifications despite failure", len(store.items))
	}
}

func TestSend_StoresNotification(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, discardLogger())

	svc.Send(context.Background(), Message{Recipient: "u1", Type: TypeRideAccepted, Title: "Driver found"})
	if len(store.items) != 1 {
		t.Fatalf("stored %d, want 1", len(store.items))
	}
	n := store.items[0]
	if n.ID == "" || n.Recipient != "u1" || n.IsRead {
		t.Errorf("notification = %+v", n)
	}
}

func TestMarkRead_RecipientOnly(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, discardLogger())
	ctx := context.Background()
	svc.Send(ctx, Message{Recipient: "u1", Type: TypeSystem, Title: "t"})
	id := store.items[0].ID

	if err := svc.MarkRead(ctx, id, "intruder"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign mark-read: %v, want ErrNotFound", err)
	}
	if err := svc.MarkRead(ctx, id, "u1"); err != nil {
		t.Fatalf("own mark-read: %v", err)
	}
	if !store.items[0].IsRead {
		t.Error("notification still unread")
	}
}

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type memStore struct {
	items      []*Notification
	failCreate error
}

func (m *memStore) Create(_ context.Context, n *Notification) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *memStore) ListForUser(_ context.Context, userID types.ID, unreadOnly bool) ([]*Notification, error) {
	var out []*Notification
	for _, n := range m.items {
		if n.Recipient != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *memStore) MarkRead(_ context.Context, id, userID types.ID) (bool, error) {
	for _, n := range m.items {
		if n.ID == id && n.Recipient == userID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}
