package utils

import (
	"bytes"
	"html/template"

	"github.com/pkg/errors"
)

var emailTemplates = template.Must(template.New("layout").Parse(layoutTemplate))

func init() {
	template.Must(emailTemplates.New("otp").Parse(otpTemplate))
	template.Must(emailTemplates.New("cancel_otp").Parse(cancelOTPTemplate))
	template.Must(emailTemplates.New("order_status").Parse(orderStatusTemplate))
}

// renderEmail executes the named body template inside the shared layout.
func renderEmail(name, title string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, name, data); err != nil {
		return "", errors.Wrapf(err, "render %s email", name)
	}
	var page bytes.Buffer
	err := emailTemplates.ExecuteTemplate(&page, "layout", map[string]interface{}{
		"Title": title,
		"Body":  template.HTML(body.String()),
	})
	if err != nil {
		return "", errors.Wrap(err, "render email layout")
	}
	return page.String(), nil
}
