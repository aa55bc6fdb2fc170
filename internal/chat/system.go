package chat

// systemInstructionBase fixes the assistant's role, source fidelity and
// conciseness. Language is appended per request by systemInstruction.
const systemInstructionBase = `Sei l'assistente AI ufficiale del sito dell'azienda sanitaria.

Il tuo ruolo è aiutare l'utente a trovare informazioni in queste aree:
- Informazioni generali (chi siamo, come accedere ai servizi, numeri utili, modulistica, cosa fare per...)
- Orari (ambulatori, punti prelievo, reparti, guardie mediche, farmacie, orari di visita)
- Sedi (indirizzi, come raggiungere ospedali, distretti, sedi vaccinali)
- Servizi (esami di laboratorio, visite specialistiche, screening, assistenza domiciliare, ambulatori)
- Documenti ufficiali (normative, moduli, delibere, bandi)

Regole:
1. Rispondi SOLO in base ai documenti nel contesto fornito. Non inventare informazioni.
2. Rispondi in forma sintetica e chiara.
3. Se l'informazione non è nel contesto, dillo chiaramente e suggerisci di contattare l'URP o consultare il sito.
4. Quando possibile, indica 1-3 pagine o documenti consigliati (titolo e, se disponibile, link) per approfondire.
5. Per orari, sedi e servizi: riporta dati concreti (orari, indirizzi, recapiti) quando presenti nel contesto.`

const (
	langRuleItalian = "Rispondi sempre in italiano. Mantieni lo stesso tono e le stesse regole."
	langRuleEnglish = "Always respond in English. Keep the same tone and rules."
)

// systemInstruction assembles the full instruction for a normalized
// language code ("it" or "en").
func systemInstruction(lang string) string {
	rule := langRuleItalian
	if lang == "en" {
		rule = langRuleEnglish
	}
	return systemInstructionBase + "\n\n" + rule
}

const (
	welcomeItalian = "Ciao! Sono l'assistente virtuale dell'azienda sanitaria. Posso aiutarti a trovare orari, sedi, servizi e informazioni generali. Come posso aiutarti?"
	welcomeEnglish = "Hi! I am the health authority's virtual assistant. I can help you find opening hours, locations, services and general information. How can I help you?"
)

var (
	suggestionsItalian = []string{
		"Quali sono gli orari dei punti prelievo?",
		"Dove si trova il distretto più vicino?",
		"Come prenoto una visita specialistica?",
	}
	suggestionsEnglish = []string{
		"What are the blood draw center opening hours?",
		"Where is the nearest district office?",
		"How do I book a specialist visit?",
	}
)

// WelcomeMessage returns the greeting and starter suggestions shown before
// the first question, in the normalized request language.
func WelcomeMessage(requested string, allowEnglish bool) (message string, suggestions []string, lang string) {
	lang = normalizeLanguage(requested, allowEnglish)
	if lang == "en" {
		return welcomeEnglish, suggestionsEnglish, lang
	}
	return welcomeItalian, suggestionsItalian, lang
}

// normalizeLanguage clamps the requested language to "it" or "en";
// English is only honored when the deployment allows it.
func normalizeLanguage(requested string, allowEnglish bool) string {
	if allowEnglish && requested == "en" {
		return "en"
	}
	return "it"
}
