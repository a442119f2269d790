// Package business holds per-tenant settings: availability window, service
// catalog, AI persona, and channel credentials.
package business

import (
	"fmt"
	"strings"
	"time"
)

// AvailabilityWindow describes the bookable hours for a tenant.
type AvailabilityWindow struct {
	StartTime              string   `json:"start_time"` // "09:00" in 24-hour format
	EndTime                string   `json:"end_time"`   // "18:00" in 24-hour format
	AvailableDays          []string `json:"available_days"`
	BufferMinutes          int      `json:"buffer_minutes"`
	DefaultDurationMinutes int      `json:"default_duration_minutes"`
}

// DayAvailable reports whether the window covers the given weekday.
// Day names are stored lowercase in English ("monday" … "sunday").
func (w AvailabilityWindow) DayAvailable(day time.Weekday) bool {
	name := strings.ToLower(day.String())
	for _, d := range w.AvailableDays {
		if strings.ToLower(strings.TrimSpace(d)) == name {
			return true
		}
	}
	return false
}

// Service is a catalog entry offered by the tenant.
type Service struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Persona configures the AI assistant's voice for a tenant.
type Persona struct {
	AgentName    string `json:"agent_name,omitempty"`
	Tone         string `json:"tone,omitempty"` // e.g. "amigavel", "formal"
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// WhatsAppIntegration holds Evolution API credentials for a tenant instance.
type WhatsAppIntegration struct {
	ServerURL    string `json:"server_url"`
	APIKey       string `json:"api_key"`
	InstanceName string `json:"instance_name"`
	Active       bool   `json:"active"`
}

// TelegramIntegration holds the bot credentials for a tenant.
type TelegramIntegration struct {
	BotToken string `json:"bot_token"`
	Active   bool   `json:"active"`
}

// CalendarAuth holds the tenant's Google Calendar OAuth tokens.
type CalendarAuth struct {
	RefreshToken string `json:"refresh_token"`
	CalendarID   string `json:"calendar_id,omitempty"` // empty means "primary"
}

// Config holds tenant-specific configuration.
type Config struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"` // e.g. "America/Sao_Paulo"

	Window   AvailabilityWindow `json:"availability_window"`
	Services []Service          `json:"services,omitempty"`
	Persona  Persona            `json:"persona,omitempty"`

	WhatsApp *WhatsAppIntegration `json:"whatsapp,omitempty"`
	Telegram *TelegramIntegration `json:"telegram,omitempty"`
	Calendar *CalendarAuth        `json:"calendar,omitempty"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig(tenantID string) *Config {
	return &Config{
		TenantID: tenantID,
		Name:     "AtendeZap",
		Timezone: "America/Sao_Paulo",
		Window: AvailabilityWindow{
			StartTime:              "09:00",
			EndTime:                "18:00",
			AvailableDays:          []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
			BufferMinutes:          15,
			DefaultDurationMinutes: 60,
		},
		Persona: Persona{
			AgentName: "Assistente",
			Tone:      "amigavel",
		},
	}
}

// Location resolves the tenant timezone, falling back to UTC on bad data.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ServiceNames returns the catalog names in configured order.
func (c *Config) ServiceNames() []string {
	names := make([]string, 0, len(c.Services))
	for _, svc := range c.Services {
		if strings.TrimSpace(svc.Name) != "" {
			names = append(names, svc.Name)
		}
	}
	return names
}

// DurationFor resolves the duration for a named service, falling back to the
// window's default when the service is unknown or has no duration set.
func (c *Config) DurationFor(service string) int {
	key := strings.ToLower(strings.TrimSpace(service))
	if key != "" {
		for _, svc := range c.Services {
			if strings.ToLower(strings.TrimSpace(svc.Name)) == key && svc.DurationMinutes > 0 {
				return svc.DurationMinutes
			}
		}
	}
	if c.Window.DefaultDurationMinutes > 0 {
		return c.Window.DefaultDurationMinutes
	}
	return 60
}

// InventoryLines formats the catalog for the persona prompt, one service per
// line, the way the dashboard shows it to the LLM.
func (c *Config) InventoryLines() string {
	if len(c.Services) == 0 {
		return "Nenhum serviço disponível no momento."
	}
	lines := make([]string, 0, len(c.Services))
	for _, svc := range c.Services {
		line := "- " + svc.Name
		if svc.DurationMinutes > 0 {
			line += fmt.Sprintf(" (%d min)", svc.DurationMinutes)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
