package service

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"

	"zalama/internal/domain"
)

// MessageTemplate renders one SMS body and one email for a set of variables.
type MessageTemplate struct {
	Title   string
	SMS     *template.Template
	Subject *template.Template
	HTML    *htmltemplate.Template
}

type RenderedMessage struct {
	Title   string
	SMS     string
	Subject string
	HTML    string
}

// templateKeys are always defined so an absent variable renders empty instead of "<no value>".
var templateKeys = []string{"Name", "Amount", "Net", "Fee", "Partner", "Reason", "Reference", "DueDate", "Code", "Email", "Password"}

func (t *MessageTemplate) Render(in map[string]interface{}) (*RenderedMessage, error) {
	vars := make(map[string]interface{}, len(in)+len(templateKeys))
	for _, k := range templateKeys {
		vars[k] = ""
	}
	for k, v := range in {
		vars[k] = v
	}
	var sms, subject, html bytes.Buffer
	if err := t.SMS.Execute(&sms, vars); err != nil {
		return nil, err
	}
	if err := t.Subject.Execute(&subject, vars); err != nil {
		return nil, err
	}
	if err := t.HTML.Execute(&html, vars); err != nil {
		return nil, err
	}
	return &RenderedMessage{Title: t.Title, SMS: sms.String(), Subject: subject.String(), HTML: html.String()}, nil
}

const emailLayout = `<!DOCTYPE html>
<html lang="fr"><body style="font-family:Arial,sans-serif;background:#f4f6fb;padding:24px">
<div style="max-width:560px;margin:auto;background:#fff;border-radius:8px;padding:24px">
<h2 style="color:#1e3a8a;margin-top:0">{{template "title" .}}</h2>
{{template "body" .}}
<p style="color:#6b7280;font-size:12px;margin-top:32px">ZaLaMa - Avances sur salaire</p>
</div></body></html>`

func newMessageTemplate(name, title, sms, subject, body string) *MessageTemplate {
	h := htmltemplate.Must(htmltemplate.New(name).Parse(emailLayout))
	htmltemplate.Must(h.New("title").Parse(subject))
	htmltemplate.Must(h.New("body").Parse(body))
	return &MessageTemplate{
		Title:   title,
		SMS:     template.Must(template.New(name + ".sms").Parse(sms)),
		Subject: template.Must(template.New(name + ".subject").Parse(subject)),
		HTML:    h,
	}
}

// eventTemplates are sent by the dispatcher. Variables: Name, Amount, Net, Fee, Partner, Reason, Reference.
var eventTemplates = map[string]*MessageTemplate{
	domain.EventRequestReceived: newMessageTemplate(domain.EventRequestReceived,
		"Demande reçue",
		"Bonjour {{.Name}}, votre demande d'avance de {{.Amount}} GNF a bien été reçue. Elle sera traitée sous peu. ZaLaMa",
		"Votre demande d'avance a été reçue",
		`<p>Bonjour {{.Name}},</p><p>Nous avons bien reçu votre demande d'avance sur salaire de <strong>{{.Amount}} GNF</strong>.</p><p>Vous serez informé(e) dès qu'elle aura été traitée.</p>`),
	domain.EventApproval: newMessageTemplate(domain.EventApproval,
		"Demande approuvée",
		"Bonjour {{.Name}}, votre demande d'avance de {{.Amount}} GNF a été approuvée. Le versement est en cours. ZaLaMa",
		"Votre demande d'avance a été approuvée",
		`<p>Bonjour {{.Name}},</p><p>Votre demande d'avance de <strong>{{.Amount}} GNF</strong> a été approuvée.</p><p>Le versement est en cours.</p>`),
	domain.EventRejection: newMessageTemplate(domain.EventRejection,
		"Demande rejetée",
		"Bonjour {{.Name}}, votre demande d'avance de {{.Amount}} GNF a été rejetée.{{if .Reason}} Motif: {{.Reason}}.{{end}} ZaLaMa",
		"Votre demande d'avance a été rejetée",
		`<p>Bonjour {{.Name}},</p><p>Votre demande d'avance de <strong>{{.Amount}} GNF</strong> n'a pas pu être acceptée.</p>{{if .Reason}}<p>Motif : {{.Reason}}</p>{{end}}`),
	domain.EventPaymentSuccess: newMessageTemplate(domain.EventPaymentSuccess,
		"Paiement effectué",
		"Bonjour {{.Name}}, votre avance de {{.Amount}} GNF a été versée. Montant net reçu: {{.Net}} GNF. Réf: {{.Reference}}. ZaLaMa",
		"Votre avance a été versée",
		`<p>Bonjour {{.Name}},</p><p>Votre avance de <strong>{{.Amount}} GNF</strong> a été versée.</p><p>Frais de service : {{.Fee}} GNF<br>Montant net reçu : <strong>{{.Net}} GNF</strong></p><p>Référence : {{.Reference}}</p>`),
	domain.EventPaymentFailure: newMessageTemplate(domain.EventPaymentFailure,
		"Paiement échoué",
		"Bonjour {{.Name}}, le versement de votre avance de {{.Amount}} GNF a échoué. Notre équipe vous contactera. ZaLaMa",
		"Échec du versement de votre avance",
		`<p>Bonjour {{.Name}},</p><p>Le versement de votre avance de <strong>{{.Amount}} GNF</strong> n'a pas abouti.</p><p>Notre équipe vous contactera rapidement.</p>`),
}

// externalTemplates are available to partner systems on /api/external/notifications/templates.
var externalTemplates = map[string]*MessageTemplate{
	"welcome": newMessageTemplate("welcome",
		"Bienvenue",
		"Bienvenue sur ZaLaMa{{if .Name}} {{.Name}}{{end}}! Vous pouvez désormais demander une avance sur salaire depuis l'application.",
		"Bienvenue sur ZaLaMa",
		`<p>Bonjour {{.Name}},</p><p>Votre compte ZaLaMa est actif{{if .Partner}} au sein de <strong>{{.Partner}}</strong>{{end}}.</p><p>Vous pouvez désormais demander une avance sur salaire depuis l'application.</p>`),
	"payment_reminder": newMessageTemplate("payment_reminder",
		"Rappel de remboursement",
		"Rappel: un remboursement de {{.Amount}} GNF est attendu{{if .DueDate}} avant le {{.DueDate}}{{end}}. ZaLaMa",
		"Rappel de remboursement",
		`<p>Bonjour {{.Name}},</p><p>Un remboursement de <strong>{{.Amount}} GNF</strong> est attendu{{if .DueDate}} avant le {{.DueDate}}{{end}}.</p>`),
	"password_reset": newMessageTemplate("password_reset",
		"Réinitialisation du mot de passe",
		"ZaLaMa: votre code de réinitialisation est {{.Code}}. Il expire dans 15 minutes.",
		"Réinitialisation de votre mot de passe",
		`<p>Bonjour {{.Name}},</p><p>Votre code de réinitialisation est <strong>{{.Code}}</strong>. Il expire dans 15 minutes.</p>`),
}

// credentialsTemplate is sent only by the employee account sync, never on behalf of partners.
var credentialsTemplate = newMessageTemplate("account_credentials",
	"Accès à votre compte",
	"ZaLaMa: votre compte est prêt. Identifiant: {{.Email}} Mot de passe temporaire: {{.Password}}",
	"Vos accès ZaLaMa",
	`<p>Bonjour {{.Name}},</p><p>Votre compte est prêt.</p><p>Identifiant : <strong>{{.Email}}</strong><br>Mot de passe temporaire : <strong>{{.Password}}</strong></p><p>Merci de le modifier dès votre première connexion.</p>`)
