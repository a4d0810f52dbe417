package directory

import (
	"context"
	"fmt"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
)

// ActionFunc performs a configured write action on behalf of the sender
// inside a participatory space. Implementations live with the hosting
// platform; the chatbot only invokes them by name.
type ActionFunc func(ctx context.Context, rt *chat.Runtime, space Space) error

// ActionRegistry maps configured write-action names to implementations.
// Unknown names fail closed.
type ActionRegistry struct {
	actions map[string]ActionFunc
}

func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string]ActionFunc)}
}

func (r *ActionRegistry) Register(name string, fn ActionFunc) {
	r.actions[name] = fn
}

func (r *ActionRegistry) Find(name string) (ActionFunc, error) {
	fn, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", chat.ErrUnknownAction, name)
	}
	return fn, nil
}
