package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
	"rotabot/internal/ports/output"
)

//go:embed templates.yaml
var defaultTemplates []byte

var _ output.EventTemplates = (*Templates)(nil)

// Templates holds the default name, time and roles of materialized events.
type Templates struct {
	Names map[string]string            `yaml:"names"`
	Times map[string]map[string]string `yaml:"times"`
	Roles []string                     `yaml:"roles"`
}

// LoadTemplates reads the YAML file at path, or the embedded defaults when
// path is empty.
func LoadTemplates(path string) (*Templates, error) {
	data := defaultTemplates
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read templates: %w", err)
		}
	}
	return ParseTemplates(data)
}

// ParseTemplates decodes and validates a templates document.
func ParseTemplates(data []byte) (*Templates, error) {
	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("config: parse templates: %w", err)
	}
	if err := t.normalize(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Templates) normalize() error {
	for _, slot := range entities.Slots {
		if strings.TrimSpace(t.Names[slot.String()]) == "" {
			return fmt.Errorf("config: templates: missing name for %s", slot)
		}
	}
	times := make(map[string]map[string]string, 7)
	for day, slots := range t.Times {
		key := strings.ToLower(strings.TrimSpace(day))
		if _, dup := times[key]; dup {
			return fmt.Errorf("config: templates: day %q is listed more than once", key)
		}
		times[key] = slots
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		day := strings.ToLower(d.String())
		for _, slot := range entities.Slots {
			v, err := domain.NormalizeTimeOfDay(times[day][slot.String()], true)
			if err != nil {
				return fmt.Errorf("config: templates: %s %s: %w", day, slot, err)
			}
			times[day][slot.String()] = v
		}
	}
	t.Times = times

	roles := t.Roles[:0]
	for _, r := range t.Roles {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		return fmt.Errorf("config: templates: at least one default role is required")
	}
	t.Roles = roles
	return nil
}

// Draft returns the default event for date and slot.
func (t *Templates) Draft(date time.Time, slot entities.Slot) entities.EventDraft {
	day := strings.ToLower(date.Weekday().String())
	return entities.EventDraft{
		Date:  date,
		Slot:  slot,
		Name:  t.Names[slot.String()],
		Time:  t.Times[day][slot.String()],
		Roles: t.DefaultRoles(),
	}
}

func (t *Templates) DefaultRoles() []string {
	return append([]string(nil), t.Roles...)
}
