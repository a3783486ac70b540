package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	TemplateWelcome         = "welcome"
	TemplatePurchaseReceipt = "purchase_receipt"
	TemplateSale            = "sale_notification"
	TemplateNewFollower     = "new_follower"
	TemplateGenerationReady = "generation_ready"
)

const layout = `<!doctype html>
<html><body style="font-family:sans-serif;color:#1f2937;max-width:560px;margin:auto">
<h2 style="color:#7c3aed">Takopi</h2>
{{template "body" .}}
<p style="color:#9ca3af;font-size:12px">You are receiving this because you have a Takopi account.</p>
</body></html>`

var bodies = map[string]string{
	TemplateWelcome: `<p>Hi {{.Name}},</p>
<p>Welcome to Takopi! Your account <strong>@{{.Username}}</strong> is ready.</p>
<p><a href="{{.BaseURL}}/explore">Start exploring 3D models</a></p>`,

	TemplatePurchaseReceipt: `<p>Hi {{.Name}},</p>
<p>Thanks for your purchase of <strong>{{.Title}}</strong>.</p>
<p>Amount: {{.Amount}}<br>Reference: {{.Reference}}</p>
<p><a href="{{.BaseURL}}/content/{{.ContentID}}">Download your model</a></p>`,

	TemplateSale: `<p>Hi {{.Name}},</p>
<p><strong>@{{.Buyer}}</strong> just bought <strong>{{.Title}}</strong> for {{.Amount}}.</p>
<p>Reference: {{.Reference}}</p>`,

	TemplateNewFollower: `<p>Hi {{.Name}},</p>
<p><strong>@{{.Follower}}</strong> started following you.</p>
<p><a href="{{.BaseURL}}/users/{{.FollowerID}}">View their profile</a></p>`,

	TemplateGenerationReady: `<p>Hi {{.Name}},</p>
<p>Your model{{if .Prompt}} for "{{.Prompt}}"{{end}} has finished generating.</p>
<p><a href="{{.BaseURL}}/generations/{{.GenerationID}}">Open it in Takopi</a></p>`,
}

var subjects = map[string]string{
	TemplateWelcome:         "Welcome to Takopi",
	TemplatePurchaseReceipt: "Your Takopi receipt for %s",
	TemplateSale:            "You made a sale: %s",
	TemplateNewFollower:     "%s is now following you",
	TemplateGenerationReady: "Your 3D model is ready",
}

var templates = mustParse()

func mustParse() map[string]*template.Template {
	out := make(map[string]*template.Template, len(bodies))
	for name, body := range bodies {
		t := template.Must(template.New(name).Parse(layout))
		template.Must(t.New("body").Parse(body))
		out[name] = t
	}
	return out
}

func render(name string, data interface{}) (string, error) {
	t, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("mailer: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mailer: render %s: %w", name, err)
	}
	return buf.String(), nil
}

func subject(name string, args ...interface{}) string {
	if len(args) == 0 {
		return subjects[name]
	}
	return fmt.Sprintf(subjects[name], args...)
}

// FormatPrice renders minor units, e.g. 1250 USD -> "12.50 USD".
func FormatPrice(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, currency)
}
