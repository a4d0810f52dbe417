package workflows

import "github.com/openpoke/decidim-module-chatbot/internal/chat"

// Messages returns the localized string catalog for the built-in
// workflows. Keys missing from a locale fall back to English.
func Messages() chat.Catalog {
	return chat.Catalog{
		"en": {
			"messages.reset_workflows":                                  "The conversation has been reset. Send any message to start again.",
			"workflows.organization_welcome.buttons.participate":        "Participate",
			"workflows.organization_welcome.buttons.end":                "End",
			"workflows.participatory_space.buttons.participate":         "Participate",
			"workflows.participatory_space.buttons.end":                 "End",
			"workflows.participatory_space.prompt":                      "Do you want to participate in this space?",
			"workflows.participatory_space.not_configured":              "This chatbot is not fully configured yet. Please try again later.",
			"workflows.participatory_space.no_spaces":                   "There are no participation spaces available right now.",
			"workflows.participatory_space.read_only_mode":              "This space is in read-only mode. Visit the platform website to participate.",
			"workflows.participatory_space.write_actions.coming_soon":   "Hang on! The participation process is not implemented yet.",
			"workflows.meetings.latest_meetings":                        "These are the next meetings:",
			"workflows.meetings.none":                                   "There are no upcoming meetings right now.",
			"workflows.meetings.view":                                   "View meeting",
		},
		"es": {
			"messages.reset_workflows":                                  "La conversación se ha reiniciado. Envía cualquier mensaje para empezar de nuevo.",
			"workflows.organization_welcome.buttons.participate":        "Participar",
			"workflows.organization_welcome.buttons.end":                "Terminar",
			"workflows.participatory_space.buttons.participate":         "Participar",
			"workflows.participatory_space.buttons.end":                 "Terminar",
			"workflows.participatory_space.prompt":                      "¿Quieres participar en este espacio?",
			"workflows.participatory_space.not_configured":              "Este chatbot aún no está configurado del todo. Inténtalo más tarde.",
			"workflows.participatory_space.no_spaces":                   "Ahora mismo no hay espacios de participación disponibles.",
			"workflows.participatory_space.read_only_mode":              "Este espacio es de solo lectura. Visita la web de la plataforma para participar.",
			"workflows.participatory_space.write_actions.coming_soon":   "¡Un momento! El proceso de participación aún no está implementado.",
			"workflows.meetings.latest_meetings":                        "Estos son los próximos encuentros:",
			"workflows.meetings.none":                                   "Ahora mismo no hay encuentros programados.",
			"workflows.meetings.view":                                   "Ver encuentro",
		},
		"ca": {
			"messages.reset_workflows":                                  "La conversa s'ha reiniciat. Envia qualsevol missatge per tornar a començar.",
			"workflows.organization_welcome.buttons.participate":        "Participar",
			"workflows.organization_welcome.buttons.end":                "Acabar",
			"workflows.participatory_space.buttons.participate":         "Participar",
			"workflows.participatory_space.buttons.end":                 "Acabar",
			"workflows.participatory_space.prompt":                      "Vols participar en aquest espai?",
			"workflows.participatory_space.not_configured":              "Aquest chatbot encara no està del tot configurat. Torna-ho a provar més tard.",
			"workflows.participatory_space.no_spaces":                   "Ara mateix no hi ha espais de participació disponibles.",
			"workflows.participatory_space.read_only_mode":              "Aquest espai és només de lectura. Visita el web de la plataforma per participar.",
			"workflows.participatory_space.write_actions.coming_soon":   "Un moment! El procés de participació encara no està implementat.",
			"workflows.meetings.latest_meetings":                        "Aquestes són les properes trobades:",
			"workflows.meetings.none":                                   "Ara mateix no hi ha trobades programades.",
			"workflows.meetings.view":                                   "Veure trobada",
		},
	}
}
