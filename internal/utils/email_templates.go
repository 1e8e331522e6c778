package utils

import (
	"fmt"
	"time"

	"nexusmart/internal/cache"
)

const layoutTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f5f5f5;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
        <tr>
            <td style="padding: 40px 20px;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px;">
                    <tr>
                        <td style="background: linear-gradient(135deg, #2563eb 0%, #7c3aed 100%); padding: 32px; text-align: center; border-radius: 12px 12px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 26px;">NexusMart</h1>
                            <p style="margin: 8px 0 0 0; color: #ffffff; opacity: 0.9;">{{.Title}}</p>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 32px; color: #333333; font-size: 16px; line-height: 1.6;">{{.Body}}</td>
                    </tr>
                    <tr>
                        <td style="padding: 20px; text-align: center; color: #999999; font-size: 12px;">NexusMart, Bengaluru, India</td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`

const otpTemplate = `<p>Hello {{.Name}},</p>
<p>{{.Intro}}</p>
<p style="font-size: 32px; font-weight: 700; letter-spacing: 8px; text-align: center; color: #2563eb;">{{.Code}}</p>
<p>The code expires in {{.Minutes}} minutes. If you did not ask for it, ignore this email.</p>`

const cancelOTPTemplate = `<p>A cancellation was requested for shipped order <strong>{{.OrderID}}</strong>.</p>
<p>Enter this code in the admin dashboard to confirm it:</p>
<p style="font-size: 32px; font-weight: 700; letter-spacing: 8px; text-align: center; color: #dc2626;">{{.Code}}</p>
<p>The code expires in {{.Minutes}} minutes and works once.</p>`

const orderStatusTemplate = `<p style="text-align: center;">
    <span style="display: inline-block; padding: 10px 22px; background-color: {{.Color}}; color: #ffffff; border-radius: 20px; font-weight: 600;">{{.Icon}} {{.Status}}</span>
</p>
<p>{{.Message}}</p>
<table role="presentation" style="width: 100%; border-collapse: collapse; margin: 20px 0;">
    {{range .Items}}
    <tr>
        <td style="padding: 8px; border-bottom: 1px solid #eeeeee;">{{.Name}} × {{.Quantity}}</td>
        <td style="padding: 8px; border-bottom: 1px solid #eeeeee; text-align: right;">₹{{printf "%.2f" .Price}}</td>
    </tr>
    {{end}}
    <tr>
        <td style="padding: 8px; font-weight: 700;">Total</td>
        <td style="padding: 8px; font-weight: 700; text-align: right;">₹{{printf "%.2f" .Total}}</td>
    </tr>
</table>
{{if .DeliveryOTP}}<p>Share this code with the courier when your parcel arrives: <strong style="letter-spacing: 4px;">{{.DeliveryOTP}}</strong></p>{{end}}
<p style="color: #777777; font-size: 13px;">Order {{.OrderID}}</p>`

type Email struct {
	Subject string
	HTML    string
}

func minutes(d time.Duration) int {
	return int(d / time.Minute)
}

func RegistrationOTPEmail(name, code string) (Email, error) {
	html, err := renderEmail("otp", "Verify your email", map[string]interface{}{
		"Name":    name,
		"Intro":   "Use this code to verify your NexusMart account:",
		"Code":    code,
		"Minutes": minutes(cache.RegisterOTPTTL),
	})
	return Email{Subject: "🔐 Your NexusMart verification code", HTML: html}, err
}

func PasswordResetOTPEmail(name, code string) (Email, error) {
	html, err := renderEmail("otp", "Reset your password", map[string]interface{}{
		"Name":    name,
		"Intro":   "Use this code to reset your NexusMart password:",
		"Code":    code,
		"Minutes": minutes(cache.ResetOTPTTL),
	})
	return Email{Subject: "🔑 Password reset code", HTML: html}, err
}

func CancelOTPEmail(orderID, code string) (Email, error) {
	html, err := renderEmail("cancel_otp", "Confirm order cancellation", map[string]interface{}{
		"OrderID": orderID,
		"Code":    code,
		"Minutes": minutes(cache.CancelOTPTTL),
	})
	return Email{Subject: fmt.Sprintf("⚠️ Cancellation code for order %s", orderID), HTML: html}, err
}
