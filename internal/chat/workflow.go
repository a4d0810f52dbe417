package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/openpoke/decidim-module-chatbot/pkg/logging"
)

// Workflow is one scripted conversation step. Implementations handle free
// text and button input; a handler that cannot serve a kind it receives
// returns ErrUnhandledInput.
type Workflow interface {
	Name() string
	ProcessUserInput(ctx context.Context, rt *Runtime) error
	ProcessActionInput(ctx context.Context, rt *Runtime) error
}

// WorkflowManifest describes a registrable workflow: its symbolic name, a
// human title for the admin surface, and the config bag keys it declares.
type WorkflowManifest struct {
	Name       string
	Title      string
	ConfigKeys []string
	Workflow   Workflow
}

// WorkflowRegistry maps symbolic names to workflows. Both the engine (root
// and delegate resolution) and the admin surface (enumeration) consult it.
// Unknown names fail closed.
type WorkflowRegistry struct {
	manifests map[string]WorkflowManifest
	order     []string
}

func NewWorkflowRegistry() *WorkflowRegistry {
	return &WorkflowRegistry{manifests: make(map[string]WorkflowManifest)}
}

func (r *WorkflowRegistry) Register(m WorkflowManifest) {
	if _, ok := r.manifests[m.Name]; !ok {
		r.order = append(r.order, m.Name)
	}
	r.manifests[m.Name] = m
}

func (r *WorkflowRegistry) Find(name string) (Workflow, error) {
	m, ok := r.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorkflow, name)
	}
	return m.Workflow, nil
}

// Manifests returns registrations in registration order.
func (r *WorkflowRegistry) Manifests() []WorkflowManifest {
	out := make([]WorkflowManifest, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.manifests[name])
	}
	return out
}

// Catalog holds localized strings keyed by locale then message key.
type Catalog map[string]map[string]string

// Text resolves a key for a locale, falling back to English, then to the
// key itself.
func (c Catalog) Text(locale, key string, args ...any) string {
	msg := ""
	if m, ok := c[locale]; ok {
		msg = m[key]
	}
	if msg == "" {
		if m, ok := c["en"]; ok {
			msg = m[key]
		}
	}
	if msg == "" {
		msg = key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// Runtime is the request-scoped engine state a workflow executes against:
// the provider adapter, the persistence boundary, the resolved setting,
// sender and stored message, and the registries for delegation.
type Runtime struct {
	Adapter   Adapter
	Store     Store
	Workflows *WorkflowRegistry
	Setting   SettingRecord
	Sender    SenderRecord
	Message   MessageRecord
	Locale    string
	Logger    *logging.Logger

	messages Catalog
	// identity of the executing workflow, recorded as parent on delegation
	name string
}

// NewRuntime assembles a runtime for one dispatch of the named workflow.
func NewRuntime(name string, adapter Adapter, store Store, workflows *WorkflowRegistry, setting SettingRecord, sender SenderRecord, message MessageRecord, locale string, messages Catalog, logger *logging.Logger) *Runtime {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runtime{
		Adapter:   adapter,
		Store:     store,
		Workflows: workflows,
		Setting:   setting,
		Sender:    sender,
		Message:   message,
		Locale:    locale,
		Logger:    logger,
		messages:  messages,
		name:      name,
	}
}

// Envelope returns the normalized inbound message.
func (rt *Runtime) Envelope() *Envelope {
	return rt.Adapter.ReceivedMessage()
}

// Delegated reports whether the sender is inside a delegated
// sub-conversation.
func (rt *Runtime) Delegated() bool {
	return rt.Sender.ParentWorkflow != ""
}

// Text resolves a localized message for the sender's locale.
func (rt *Runtime) Text(key string, args ...any) string {
	return rt.messages.Text(rt.Locale, key, args...)
}

// Start runs one dispatch: acknowledge when possible, then route by
// message kind. Receipts and unclassifiable payloads are a no-op.
// forceWelcome routes to the text handler regardless of kind, so a freshly
// delegated workflow greets immediately.
func (rt *Runtime) Start(ctx context.Context, wf Workflow, forceWelcome bool) error {
	env := rt.Envelope()
	if env.Acknowledgeable() {
		rt.markAsRead(ctx)
	}
	switch {
	case env.UserText() || forceWelcome:
		if err := wf.ProcessUserInput(ctx, rt); err != nil {
			return fmt.Errorf("workflow %q user input: %w", wf.Name(), err)
		}
	case env.Actionable():
		if err := wf.ProcessActionInput(ctx, rt); err != nil {
			return fmt.Errorf("workflow %q action input: %w", wf.Name(), err)
		}
	}
	return nil
}

// Delegate hands the conversation to the named workflow, remembering the
// current one as parent, and starts the child within the same request so
// its greeting goes out without waiting for another inbound message.
// Depth is capped at one: delegating while already delegated overwrites
// the stored parent.
func (rt *Runtime) Delegate(ctx context.Context, name string) error {
	child, err := rt.Workflows.Find(name)
	if err != nil {
		return err
	}
	if err := rt.Store.SetWorkflow(ctx, rt.Sender.ID, name, rt.name); err != nil {
		return err
	}
	rt.Sender.CurrentWorkflow = name
	rt.Sender.ParentWorkflow = rt.name

	childRT := rt.forWorkflow(name)
	return childRT.Start(ctx, child, true)
}

// Reset returns the sender to the root state and confirms it to the user.
func (rt *Runtime) Reset(ctx context.Context) error {
	if err := rt.Store.ClearWorkflow(ctx, rt.Sender.ID); err != nil {
		return err
	}
	rt.Sender.CurrentWorkflow = ""
	rt.Sender.ParentWorkflow = ""
	return rt.Adapter.SendText(ctx, rt.Text("messages.reset_workflows"))
}

// Return pops back to the delegating workflow, or to root when there is
// none.
func (rt *Runtime) Return(ctx context.Context) error {
	parent := rt.Sender.ParentWorkflow
	if parent == "" {
		return rt.Store.ClearWorkflow(ctx, rt.Sender.ID)
	}
	if err := rt.Store.SetWorkflow(ctx, rt.Sender.ID, parent, ""); err != nil {
		return err
	}
	rt.Sender.CurrentWorkflow = parent
	rt.Sender.ParentWorkflow = ""
	return nil
}

// markAsRead acknowledges the message at the provider and stamps read_at.
// Both are best-effort; a failed acknowledgment never aborts the reply.
func (rt *Runtime) markAsRead(ctx context.Context) {
	env := rt.Envelope()
	if err := rt.Adapter.MarkAsRead(ctx, env.MessageID); err != nil {
		rt.Logger.Warn("mark as read failed", "error", err, "external_id", env.MessageID)
	}
	if rt.Message.ID != uuid.Nil {
		if err := rt.Store.MarkMessageRead(ctx, rt.Message.ID); err != nil {
			rt.Logger.Warn("store read timestamp failed", "error", err, "message_id", rt.Message.ID)
		}
	}
}

func (rt *Runtime) forWorkflow(name string) *Runtime {
	clone := *rt
	clone.name = name
	return &clone
}
