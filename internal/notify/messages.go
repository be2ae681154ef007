package notify

import (
	"context"

	"github.com/fekuna/freshmarket-storefront/pkg/i18n"
)

// Messenger turns catalog message ids into notifications.
type Messenger struct {
	sink Notifier
	loc  *i18n.Localizer
}

func NewMessenger(sink Notifier, loc *i18n.Localizer) *Messenger {
	return &Messenger{sink: sink, loc: loc}
}

func (m *Messenger) Success(ctx context.Context, titleID, descID string, data map[string]any) {
	m.send(ctx, titleID, descID, data, KindDefault)
}

func (m *Messenger) Failure(ctx context.Context, titleID, descID string, data map[string]any) {
	m.send(ctx, titleID, descID, data, KindDestructive)
}

func (m *Messenger) Text(id string, data map[string]any) string {
	return m.loc.T(id, data)
}

func (m *Messenger) send(ctx context.Context, titleID, descID string, data map[string]any, kind Kind) {
	m.sink.Notify(ctx, Notification{
		Title:       m.loc.T(titleID, data),
		Description: m.loc.T(descID, data),
		Kind:        kind,
	})
}
