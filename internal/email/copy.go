package email

import "fmt"

type lifecycleCopy struct {
	heading string
	body    string
}

var copyByEvent = map[string]lifecycleCopy{
	"request_received":  {"Demande bien reçue", "Votre demande de dépannage a été enregistrée. Un devis vous sera proposé rapidement."},
	"estimate_created":  {"Un devis vous attend", "Un devis a été établi pour votre demande. Consultez le détail et répondez en ligne."},
	"estimate_revised":  {"Devis révisé", "Des travaux supplémentaires ont été identifiés. Un devis révisé attend votre réponse."},
	"estimate_accepted": {"Devis accepté", "Le devis a été accepté. La demande est ouverte à l'assignation."},
	"estimate_refused":  {"Devis révisé refusé", "L'artisan a refusé le devis révisé. La demande est de nouveau ouverte à l'assignation."},
	"request_claimed":   {"Artisan assigné", "Un artisan a pris en charge votre demande et va vous contacter."},
	"work_resumed":      {"Reprise des travaux", "Le devis révisé a été accepté par les deux parties. Les travaux reprennent."},
	"work_validated":    {"Travaux validés", "Une des parties a validé la fin des travaux."},
	"payment_due":       {"Paiement attendu", "Les travaux ont été validés par les deux parties. Le paiement final est attendu."},
	"request_completed": {"Demande terminée", "Le paiement a été reçu. Votre demande est terminée, merci de votre confiance."},
	"request_cancelled": {"Demande annulée", "La demande a été annulée."},
	"dispute_opened":    {"Litige ouvert", "Un litige a été ouvert sur une demande. Une intervention est requise."},
	"dispute_resolved":  {"Litige résolu", "Le litige a été tranché. Consultez la décision dans votre espace."},
}

// LifecycleUpdate builds the rendered content for one queued notification.
func LifecycleUpdate(to, event, requestID, ctaURL string) Update {
	c, ok := copyByEvent[event]
	if !ok {
		c = lifecycleCopy{
			heading: "Mise à jour de votre demande",
			body:    fmt.Sprintf("Votre demande a changé d'état (%s).", event),
		}
	}
	u := Update{
		To:        to,
		Event:     event,
		RequestID: requestID,
		Heading:   c.heading,
		Body:      c.body,
	}
	if ctaURL != "" {
		u.CTALabel = "Voir ma demande"
		u.CTAURL = ctaURL
	}
	return u
}
