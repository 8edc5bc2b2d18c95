package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/validator/v10"
)

// contactResetDelay is how long the sent confirmation stays up before the
// form clears.
const contactResetDelay = 3 * time.Second

// ContactMessage is a submitted form. Nothing is delivered anywhere; the
// form only confirms and resets.
type ContactMessage struct {
	Name    string `validate:"required"`
	Email   string `validate:"required,email"`
	Subject string `validate:"required"`
	Message string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first invalid field in form order.
func (m ContactMessage) Validate() error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if fe.Tag() == "email" {
		return errors.New("please enter a valid email address")
	}
	return errors.New(strings.ToLower(fe.Field()) + " is required")
}

const (
	fieldName = iota
	fieldEmail
	fieldSubject
	fieldMessage
	fieldSend
	fieldCount
)

var fieldLabels = [...]string{"Name", "Email", "Subject", "Message"}

type contactForm struct {
	inputs  [3]textinput.Model
	message textarea.Model
	focus   int
	editing bool
	sent    bool
	err     error
	// gen increments per successful submit so only the newest reset lands.
	gen int
}

func newContactForm() contactForm {
	placeholders := [3]string{"Your name", "you@example.com", "What is this about?"}

	var f contactForm
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.Prompt = ""
		ti.CharLimit = 120
		ti.Width = 40
		f.inputs[i] = ti
	}

	ta := textarea.New()
	ta.Placeholder = "Your message..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetWidth(50)
	ta.SetHeight(4)
	f.message = ta

	return f
}

func (f *contactForm) value() ContactMessage {
	return ContactMessage{
		Name:    strings.TrimSpace(f.inputs[fieldName].Value()),
		Email:   strings.TrimSpace(f.inputs[fieldEmail].Value()),
		Subject: strings.TrimSpace(f.inputs[fieldSubject].Value()),
		Message: strings.TrimSpace(f.message.Value()),
	}
}

func (f *contactForm) setFocus(i int) tea.Cmd {
	f.focus = (i + fieldCount) % fieldCount
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	f.message.Blur()

	switch {
	case f.focus < fieldMessage:
		return f.inputs[f.focus].Focus()
	case f.focus == fieldMessage:
		return f.message.Focus()
	}
	return nil
}

func (f *contactForm) start() tea.Cmd {
	f.editing = true
	return f.setFocus(fieldName)
}

func (f *contactForm) stop() {
	f.editing = false
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	f.message.Blur()
}

// submit validates and, on success, confirms and schedules the reset.
func (f *contactForm) submit() tea.Cmd {
	if err := f.value().Validate(); err != nil {
		f.err = err
		f.sent = false
		return nil
	}
	f.err = nil
	f.sent = true
	f.gen++
	gen := f.gen
	return tea.Tick(contactResetDelay, func(time.Time) tea.Msg {
		return contactResetMsg{gen: gen}
	})
}

// reset clears the form if gen is the newest submission.
func (f *contactForm) reset(gen int) {
	if gen != f.gen {
		return
	}
	for j := range f.inputs {
		f.inputs[j].Reset()
	}
	f.message.Reset()
	f.sent = false
	f.err = nil
}

// update routes msg to the focused field. Keys that move focus or submit
// are consumed here.
func (f *contactForm) update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch k := key.String(); k {
		case "esc":
			f.stop()
			return nil
		case "tab", "down":
			if f.focus != fieldMessage || k == "tab" {
				return f.setFocus(f.focus + 1)
			}
		case "shift+tab", "up":
			if f.focus != fieldMessage || k == "shift+tab" {
				return f.setFocus(f.focus - 1)
			}
		case "ctrl+s":
			return f.submit()
		case "enter":
			switch {
			case f.focus == fieldSend:
				return f.submit()
			case f.focus < fieldMessage:
				return f.setFocus(f.focus + 1)
			}
		}
	}

	var cmd tea.Cmd
	switch {
	case f.focus < fieldMessage:
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	case f.focus == fieldMessage:
		f.message, cmd = f.message.Update(msg)
	}
	return cmd
}

func (f *contactForm) view() string {
	var b strings.Builder
	for i := range f.inputs {
		b.WriteString(f.label(i))
		b.WriteString("\n")
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n\n")
	}
	b.WriteString(f.label(fieldMessage))
	b.WriteString("\n")
	b.WriteString(f.message.View())
	b.WriteString("\n\n")

	button := buttonStyle
	if f.editing && f.focus == fieldSend {
		button = buttonActiveStyle
	}
	b.WriteString(button.Render("Send Message"))

	switch {
	case f.sent:
		b.WriteString("\n\n")
		b.WriteString(successStyle.Render("Message sent! I'll get back to you soon."))
	case f.err != nil:
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(f.err.Error()))
	}
	return b.String()
}

func (f *contactForm) label(i int) string {
	l := labelStyle.Render(fieldLabels[i])
	if f.editing && f.focus == i {
		l = itemSelectedStyle.Render("> " + fieldLabels[i])
	}
	return l
}
