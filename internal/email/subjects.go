package email

var subjects = map[string]string{
	"request_received":  "Votre demande a bien été reçue",
	"estimate_created":  "Votre devis est disponible",
	"estimate_revised":  "Un devis révisé vous attend",
	"estimate_accepted": "Devis accepté",
	"estimate_refused":  "Le devis révisé a été refusé",
	"request_claimed":   "Un artisan a pris en charge votre demande",
	"work_resumed":      "Les travaux peuvent reprendre",
	"work_validated":    "Les travaux ont été validés",
	"payment_due":       "Votre paiement est attendu",
	"request_completed": "Votre demande est terminée",
	"request_cancelled": "Demande annulée",
	"dispute_opened":    "Un litige a été ouvert",
	"dispute_resolved":  "Votre litige a été résolu",
}

func subjectFor(event string) string {
	if s, ok := subjects[event]; ok {
		return s
	}
	return "Mise à jour de votre demande"
}
