package chat

import "testing"

func TestEnvelopePredicates(t *testing.T) {
	tests := []struct {
		name           string
		env            Envelope
		acknowledgable bool
		userText       bool
		actionable     bool
		classification string
	}{
		{
			name:           "free text",
			env:            Envelope{From: "123", MessageID: "wamid.1", Body: "hello"},
			acknowledgable: true,
			userText:       true,
			classification: TypeText,
		},
		{
			name:           "button reply",
			env:            Envelope{From: "123", MessageID: "wamid.1", Body: "Participate", ButtonID: "start"},
			acknowledgable: true,
			actionable:     true,
			classification: TypeInteractive,
		},
		{
			name:           "delivery receipt",
			env:            Envelope{},
			classification: TypeReceipt,
		},
		{
			name:           "contact without body",
			env:            Envelope{From: "123", MessageID: "wamid.1"},
			acknowledgable: true,
			classification: TypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.env.Acknowledgeable(); got != tt.acknowledgable {
				t.Errorf("Acknowledgeable() = %v, want %v", got, tt.acknowledgable)
			}
			if got := tt.env.UserText(); got != tt.userText {
				t.Errorf("UserText() = %v, want %v", got, tt.userText)
			}
			if got := tt.env.Actionable(); got != tt.actionable {
				t.Errorf("Actionable() = %v, want %v", got, tt.actionable)
			}
			if got := tt.env.Classification(); got != tt.classification {
				t.Errorf("Classification() = %q, want %q", got, tt.classification)
			}
		})
	}
}
