package directory

import (
	"context"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
)

// LocaleResolver picks the locale for messages to a sender: the locale
// captured on first contact, then the linked platform user's locale, then
// the organization default, then the configured fallback.
type LocaleResolver struct {
	resolver Resolver
	fallback string
}

func NewLocaleResolver(resolver Resolver, fallback string) *LocaleResolver {
	if fallback == "" {
		fallback = "en"
	}
	return &LocaleResolver{resolver: resolver, fallback: fallback}
}

func (l *LocaleResolver) SenderLocale(ctx context.Context, setting chat.SettingRecord, sender chat.SenderRecord) string {
	if locale := sender.Metadata["locale"]; locale != "" {
		return locale
	}
	if l.resolver != nil && sender.UserID != nil {
		if locale, err := l.resolver.UserLocale(ctx, *sender.UserID); err == nil && locale != "" {
			return locale
		}
	}
	if l.resolver != nil {
		if org, err := l.resolver.Organization(ctx, setting.OrganizationID); err == nil && org.DefaultLocale != "" {
			return org.DefaultLocale
		}
	}
	return l.fallback
}
