package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/overseerhq/overseer/pkg/models"
)

// Default consecutive-failure thresholds per lead role. Finance runs tighter
// than everyone else. These are load-time constants with no runtime setter.
const (
	DefaultFailureThreshold = 3
	FinanceFailureThreshold = 2
)

// TeamLeadProfile describes one team lead: which subordinates it reviews,
// how often, and with what powers.
type TeamLeadProfile struct {
	Role               string   `yaml:"role"`
	Subordinates       []string `yaml:"subordinates"`
	Cadence            string   `yaml:"cadence"` // daily or weekly
	FailureThreshold   int      `yaml:"failure_threshold"`
	AmendmentAuthority bool     `yaml:"amendment_authority"`
}

// Profiles is the frozen team-lead roster. It is built once at load time;
// accessors return copies so callers cannot mutate the roster.
type Profiles struct {
	leads []TeamLeadProfile
}

// ProfilesPath returns the roster file under home.
func ProfilesPath(home string) string {
	return filepath.Join(home, "profiles.yaml")
}

// LoadProfiles reads and validates <home>/profiles.yaml. A missing file yields
// the built-in default roster rather than an error.
func LoadProfiles(home string) (*Profiles, error) {
	data, err := os.ReadFile(ProfilesPath(home))
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultProfiles(), nil
		}
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	var raw struct {
		Leads []TeamLeadProfile `yaml:"leads"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	return NewProfiles(raw.Leads)
}

// NewProfiles validates and freezes a roster. A profile whose subordinate set
// contains its own role is rejected outright: a team lead must never review
// itself.
func NewProfiles(leads []TeamLeadProfile) (*Profiles, error) {
	seen := make(map[string]bool, len(leads))
	frozen := make([]TeamLeadProfile, 0, len(leads))
	for i, l := range leads {
		if l.Role == "" {
			return nil, fmt.Errorf("profile %d: role is required", i)
		}
		if seen[l.Role] {
			return nil, fmt.Errorf("profile %q: duplicate role", l.Role)
		}
		seen[l.Role] = true
		for _, s := range l.Subordinates {
			if s == l.Role {
				return nil, fmt.Errorf("profile %q: subordinate set contains its own role", l.Role)
			}
		}
		switch l.Cadence {
		case "":
			l.Cadence = models.CadenceDaily
		case models.CadenceDaily, models.CadenceWeekly:
		default:
			return nil, fmt.Errorf("profile %q: unknown cadence %q", l.Role, l.Cadence)
		}
		if l.FailureThreshold == 0 {
			l.FailureThreshold = defaultThresholdFor(l.Role)
		}
		if l.FailureThreshold < 0 {
			return nil, fmt.Errorf("profile %q: failure threshold must be positive", l.Role)
		}
		l.Subordinates = append([]string(nil), l.Subordinates...)
		frozen = append(frozen, l)
	}
	return &Profiles{leads: frozen}, nil
}

func defaultThresholdFor(role string) int {
	if role == "team_lead_finance" {
		return FinanceFailureThreshold
	}
	return DefaultFailureThreshold
}

// Leads returns a copy of the roster.
func (p *Profiles) Leads() []TeamLeadProfile {
	out := make([]TeamLeadProfile, len(p.leads))
	for i, l := range p.leads {
		l.Subordinates = append([]string(nil), l.Subordinates...)
		out[i] = l
	}
	return out
}

// Lead returns a copy of one profile by role.
func (p *Profiles) Lead(role string) (TeamLeadProfile, bool) {
	for _, l := range p.leads {
		if l.Role == role {
			l.Subordinates = append([]string(nil), l.Subordinates...)
			return l, true
		}
	}
	return TeamLeadProfile{}, false
}

// Len reports the roster size.
func (p *Profiles) Len() int { return len(p.leads) }

// DefaultProfiles is the roster used when no profiles.yaml exists: the three
// stock departments with their stock thresholds.
func DefaultProfiles() *Profiles {
	p, err := NewProfiles([]TeamLeadProfile{
		{
			Role:               "team_lead_research",
			Subordinates:       []string{"research_analyst", "research_writer"},
			Cadence:            models.CadenceDaily,
			FailureThreshold:   DefaultFailureThreshold,
			AmendmentAuthority: true,
		},
		{
			Role:               "team_lead_engineering",
			Subordinates:       []string{"backend_dev", "frontend_dev", "qa_engineer"},
			Cadence:            models.CadenceDaily,
			FailureThreshold:   DefaultFailureThreshold,
			AmendmentAuthority: true,
		},
		{
			Role:               "team_lead_finance",
			Subordinates:       []string{"bookkeeper", "financial_analyst"},
			Cadence:            models.CadenceWeekly,
			FailureThreshold:   FinanceFailureThreshold,
			AmendmentAuthority: false,
		},
	})
	if err != nil {
		panic(err) // static roster, cannot fail
	}
	return p
}

// SaveProfiles writes a roster file, used by seed and doctor.
func SaveProfiles(home string, leads []TeamLeadProfile) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(struct {
		Leads []TeamLeadProfile `yaml:"leads"`
	}{Leads: leads})
	if err != nil {
		return err
	}
	return os.WriteFile(ProfilesPath(home), data, 0o644)
}
