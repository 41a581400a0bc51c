package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	textTemplate "text/template"

	"gopkg.in/yaml.v3"
)

//go:embed emails/*
var emailTemplates embed.FS

// EmailConfig holds email copy and branding from emails/config.yaml
type EmailConfig struct {
	Branding struct {
		Name    string `yaml:"name"`
		Tagline string `yaml:"tagline"`
		Website string `yaml:"website"`
	} `yaml:"branding"`

	Design struct {
		PrimaryColor string `yaml:"primary_color"`
		TextColor    string `yaml:"text_color"`
		MutedColor   string `yaml:"muted_color"`
		LightBg      string `yaml:"light_bg"`
		BorderColor  string `yaml:"border_color"`
	} `yaml:"design"`

	Subjects struct {
		VerifyEmail string `yaml:"verify_email"`
	} `yaml:"subjects"`

	VerifyEmail struct {
		Greeting        string `yaml:"greeting"`
		Intro           string `yaml:"intro"`
		ButtonText      string `yaml:"button_text"`
		ExpiryWarning   string `yaml:"expiry_warning"`
		AlternativeText string `yaml:"alternative_text"`
		IgnoreText      string `yaml:"ignore_text"`
	} `yaml:"verify_email"`
}

// LoadEmailConfig loads the embedded email configuration
func LoadEmailConfig() (*EmailConfig, error) {
	data, err := emailTemplates.ReadFile("emails/config.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read email config: %w", err)
	}

	var config EmailConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse email config: %w", err)
	}

	return &config, nil
}

// VerifyEmailData holds data for the verification email templates
type VerifyEmailData struct {
	Name          string
	Link          string
	ExpiryMinutes int

	// Copy from config.yaml
	BrandName       string
	Tagline         string
	Website         string
	Greeting        string
	Intro           string
	ButtonText      string
	ExpiryWarning   string
	AlternativeText string
	IgnoreText      string

	// Design colors
	PrimaryColor string
	TextColor    string
	MutedColor   string
	LightBg      string
	BorderColor  string
}

// NewVerifyEmailData fills the template data from config
func NewVerifyEmailData(config *EmailConfig, name, link string, expiryMinutes int) VerifyEmailData {
	return VerifyEmailData{
		Name:            name,
		Link:            link,
		ExpiryMinutes:   expiryMinutes,
		BrandName:       config.Branding.Name,
		Tagline:         config.Branding.Tagline,
		Website:         config.Branding.Website,
		Greeting:        fmt.Sprintf(config.VerifyEmail.Greeting, name),
		Intro:           config.VerifyEmail.Intro,
		ButtonText:      config.VerifyEmail.ButtonText,
		ExpiryWarning:   fmt.Sprintf(config.VerifyEmail.ExpiryWarning, expiryMinutes),
		AlternativeText: config.VerifyEmail.AlternativeText,
		IgnoreText:      config.VerifyEmail.IgnoreText,
		PrimaryColor:    config.Design.PrimaryColor,
		TextColor:       config.Design.TextColor,
		MutedColor:      config.Design.MutedColor,
		LightBg:         config.Design.LightBg,
		BorderColor:     config.Design.BorderColor,
	}
}

// RenderVerifyEmailHTML renders the HTML verification email
func RenderVerifyEmailHTML(data VerifyEmailData) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "emails/verify-email.html")
	if err != nil {
		return "", fmt.Errorf("failed to parse verify-email template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute verify-email template: %w", err)
	}

	return buf.String(), nil
}

// RenderVerifyEmailText renders the plain text verification email
func RenderVerifyEmailText(data VerifyEmailData) (string, error) {
	tmpl, err := textTemplate.ParseFS(emailTemplates, "emails/verify-email.txt")
	if err != nil {
		return "", fmt.Errorf("failed to parse verify-email text template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute verify-email text template: %w", err)
	}

	return buf.String(), nil
}
