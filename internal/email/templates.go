package email

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/codr1/salonbook/internal/models"
)

// Templates renders client-facing booking emails in the booking's language.
type Templates struct {
	SalonName string
	BaseURL   string
	Location  *time.Location
}

type copyText struct {
	confirmedSubject   string
	confirmedIntro     string
	rescheduledSubject string
	rescheduledIntro   string
	cancelledSubject   string
	cancelledIntro     string
	reminderSubject    string
	reminderIntro      string
	service            string
	addons             string
	date               string
	time               string
	duration           string
	price              string
	previous           string
	manage             string
	manageLink         string
	policy             string
	minutes            string
	months             [12]string
	weekdays           [7]string
}

var translations = map[string]copyText{
	models.LanguageEnglish: {
		confirmedSubject:   "Your appointment is confirmed",
		confirmedIntro:     "Thanks for booking with us. Here are your appointment details.",
		rescheduledSubject: "Your appointment has been updated",
		rescheduledIntro:   "Your appointment details have changed.",
		cancelledSubject:   "Your appointment has been cancelled",
		cancelledIntro:     "Your appointment has been cancelled. We hope to see you soon.",
		reminderSubject:    "Reminder: upcoming appointment",
		reminderIntro:      "This is a reminder of your upcoming appointment.",
		service:            "Service",
		addons:             "Add-ons",
		date:               "Date",
		time:               "Time",
		duration:           "Duration",
		price:              "Price",
		previous:           "Previously",
		manage:             "Manage your booking",
		manageLink:         "View or cancel your appointment",
		policy:             "Cancellations must be made at least %d hours before your appointment.",
		minutes:            "min",
		months:             [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
		weekdays:           [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	},
	models.LanguageSpanish: {
		confirmedSubject:   "Tu cita está confirmada",
		confirmedIntro:     "Gracias por reservar con nosotros. Estos son los detalles de tu cita.",
		rescheduledSubject: "Tu cita ha sido modificada",
		rescheduledIntro:   "Los detalles de tu cita han cambiado.",
		cancelledSubject:   "Tu cita ha sido cancelada",
		cancelledIntro:     "Tu cita ha sido cancelada. Esperamos verte pronto.",
		reminderSubject:    "Recordatorio: próxima cita",
		reminderIntro:      "Te recordamos tu próxima cita.",
		service:            "Servicio",
		addons:             "Extras",
		date:               "Fecha",
		time:               "Hora",
		duration:           "Duración",
		price:              "Precio",
		previous:           "Antes",
		manage:             "Gestiona tu reserva",
		manageLink:         "Ver o cancelar tu cita",
		policy:             "Las cancelaciones deben hacerse al menos %d horas antes de tu cita.",
		minutes:            "min",
		months:             [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
		weekdays:           [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
	},
}

func textFor(language string) copyText {
	if t, ok := translations[language]; ok {
		return t
	}
	return translations[models.LanguageEnglish]
}

type field struct {
	label string
	value string
}

type emailContent struct {
	subject string
	intro   string
	fields  []field
	link    string
	footer  string
	t       copyText
}

// Confirmation is sent after a booking is created.
func (tpl Templates) Confirmation(b models.BookingDetails, cutoff time.Duration) (Message, error) {
	t := textFor(b.Language)
	content := emailContent{
		subject: tpl.subject(t.confirmedSubject),
		intro:   t.confirmedIntro,
		fields:  tpl.bookingFields(t, b),
		link:    tpl.manageURL(b.Token),
		t:       t,
	}
	if cutoff > 0 {
		content.footer = fmt.Sprintf(t.policy, int(cutoff.Hours()))
	}
	return tpl.render(b.ClientEmail, content)
}

// Rescheduled is sent after an update; previous may be nil.
func (tpl Templates) Rescheduled(b models.BookingDetails, previous *models.BookingDetails) (Message, error) {
	t := textFor(b.Language)
	fields := tpl.bookingFields(t, b)
	if previous != nil && (previous.Day != b.Day || previous.StartTime != b.StartTime) {
		fields = append(fields, field{label: t.previous, value: tpl.formatDate(t, previous.Day) + " " + previous.StartTime})
	}
	return tpl.render(b.ClientEmail, emailContent{
		subject: tpl.subject(t.rescheduledSubject),
		intro:   t.rescheduledIntro,
		fields:  fields,
		link:    tpl.manageURL(b.Token),
		t:       t,
	})
}

func (tpl Templates) Cancellation(b models.BookingDetails) (Message, error) {
	t := textFor(b.Language)
	return tpl.render(b.ClientEmail, emailContent{
		subject: tpl.subject(t.cancelledSubject),
		intro:   t.cancelledIntro,
		fields:  tpl.bookingFields(t, b),
		t:       t,
	})
}

func (tpl Templates) Reminder(b models.BookingDetails) (Message, error) {
	t := textFor(b.Language)
	return tpl.render(b.ClientEmail, emailContent{
		subject: tpl.subject(t.reminderSubject),
		intro:   t.reminderIntro,
		fields:  tpl.bookingFields(t, b),
		link:    tpl.manageURL(b.Token),
		t:       t,
	})
}

func (tpl Templates) subject(base string) string {
	name := strings.TrimSpace(tpl.SalonName)
	if name == "" {
		return base
	}
	return fmt.Sprintf("%s - %s", base, name)
}

func (tpl Templates) manageURL(token string) string {
	if token == "" || tpl.BaseURL == "" {
		return ""
	}
	return strings.TrimRight(tpl.BaseURL, "/") + "/booking/" + token
}

func (tpl Templates) bookingFields(t copyText, b models.BookingDetails) []field {
	fields := []field{
		{label: t.service, value: b.ServiceName},
	}
	if len(b.Addons) > 0 {
		names := make([]string, 0, len(b.Addons))
		for _, addon := range b.Addons {
			names = append(names, addon.Name)
		}
		fields = append(fields, field{label: t.addons, value: strings.Join(names, ", ")})
	}
	timeRange := b.StartTime
	if end, err := b.EndsAt(tpl.location()); err == nil {
		timeRange = fmt.Sprintf("%s - %s", b.StartTime, end.Format(models.ClockLayout))
	}
	fields = append(fields,
		field{label: t.date, value: tpl.formatDate(t, b.Day)},
		field{label: t.time, value: timeRange},
		field{label: t.duration, value: fmt.Sprintf("%d %s", b.TotalDurationMinutes, t.minutes)},
		field{label: t.price, value: FormatPrice(b.TotalPriceCents)},
	)
	return fields
}

func (tpl Templates) location() *time.Location {
	if tpl.Location == nil {
		return time.UTC
	}
	return tpl.Location
}

func (tpl Templates) formatDate(t copyText, day string) string {
	d, err := models.ParseDay(day)
	if err != nil {
		return day
	}
	return fmt.Sprintf("%s, %d %s %d", t.weekdays[d.Weekday()], d.Day(), t.months[d.Month()-1], d.Year())
}

// FormatPrice renders cents as a dollar amount.
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func (tpl Templates) render(recipient string, content emailContent) (Message, error) {
	var html bytes.Buffer
	if err := htmlBody(content).Render(context.Background(), &html); err != nil {
		return Message{}, fmt.Errorf("render email html: %w", err)
	}
	return Message{
		To:       recipient,
		Subject:  content.subject,
		HTMLBody: html.String(),
		TextBody: textBody(content),
	}, nil
}

func htmlBody(content emailContent) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html><body style="font-family:Helvetica,Arial,sans-serif;color:#1f2937">`)
		b.WriteString(`<h2>` + templ.EscapeString(content.subject) + `</h2>`)
		b.WriteString(`<p>` + templ.EscapeString(content.intro) + `</p>`)
		b.WriteString(`<table cellpadding="4">`)
		for _, f := range content.fields {
			b.WriteString(`<tr><td><strong>` + templ.EscapeString(f.label) + `</strong></td><td>` + templ.EscapeString(f.value) + `</td></tr>`)
		}
		b.WriteString(`</table>`)
		if content.link != "" {
			b.WriteString(`<p><a href="` + templ.EscapeString(content.link) + `">` + templ.EscapeString(content.t.manageLink) + `</a></p>`)
		}
		if content.footer != "" {
			b.WriteString(`<p style="font-size:12px;color:#6b7280">` + templ.EscapeString(content.footer) + `</p>`)
		}
		b.WriteString(`</body></html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func textBody(content emailContent) string {
	lines := []string{content.intro, ""}
	for _, f := range content.fields {
		lines = append(lines, fmt.Sprintf("%s: %s", f.label, f.value))
	}
	if content.link != "" {
		lines = append(lines, "", fmt.Sprintf("%s: %s", content.t.manage, content.link))
	}
	if content.footer != "" {
		lines = append(lines, "", content.footer)
	}
	return strings.Join(lines, "\n")
}
