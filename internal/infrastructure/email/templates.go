package email

import (
	"bytes"
	"fmt"
	"html/template"
)

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<div style="max-width:560px;margin:0 auto;padding:24px">
<h2 style="color:#2e7d32">SecondLife</h2>
{{template "body" .}}
<p style="margin-top:32px;font-size:12px;color:#888">Cet email a été envoyé automatiquement, merci de ne pas y répondre.</p>
</div></body></html>`))

var bodies = map[string]string{
	"welcome": `{{define "body"}}
<p>Bonjour {{.Name}},</p>
<p>Bienvenue sur SecondLife ! Vous pouvez dès maintenant publier vos annonces et discuter avec les acheteurs.</p>
<p><a href="{{.AppURL}}">Découvrir les annonces</a></p>
{{end}}`,
	"new_message": `{{define "body"}}
<p>Vous avez reçu un nouveau message de <strong>{{.FromName}}</strong> concernant « {{.ProductTitle}} » :</p>
<blockquote style="border-left:3px solid #2e7d32;padding-left:12px">{{.Content}}</blockquote>
<p><a href="{{.AppURL}}/messages">Répondre</a></p>
{{end}}`,
	"sale_confirmed": `{{define "body"}}
<p>Bonjour {{.Name}},</p>
<p>{{.SellerName}} a confirmé la vente de « {{.ProductTitle}} ». Merci pour votre achat !</p>
<p>Votre avis aide la communauté : <a href="{{.AppURL}}/messages">laisser un avis</a>.</p>
{{end}}`,
	"follow_up": `{{define "body"}}
<p>Bonjour {{.Name}},</p>
<p>Cela fait un moment que nous ne vous avons pas vu. De nouvelles annonces vous attendent !</p>
<p><a href="{{.AppURL}}">Revenir sur SecondLife</a></p>
{{end}}`,
}

var templates = func() map[string]*template.Template {
	out := make(map[string]*template.Template, len(bodies))
	for name, body := range bodies {
		t := template.Must(layout.Clone())
		out[name] = template.Must(t.Parse(body))
	}
	return out
}()

type templateData struct {
	AppURL       string
	Name         string
	FromName     string
	SellerName   string
	ProductTitle string
	Content      string
}

func render(name string, data templateData) (string, error) {
	t, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
