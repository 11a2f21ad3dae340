package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind selects what a slider controls.
type Kind int

const (
	// KindApps controls every session matching one of Target.Apps.
	// It is the zero Kind, so an unset target controls nothing.
	KindApps Kind = iota
	// KindMaster controls the system output level.
	KindMaster
	// KindCurrent controls the session owning the foreground window.
	KindCurrent
	// KindUnmapped controls every session not matched by any apps target.
	KindUnmapped
)

var kindTags = map[Kind]string{
	KindApps:     "apps",
	KindMaster:   "master",
	KindCurrent:  "current",
	KindUnmapped: "unmapped",
}

func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Target is a volume target. Apps is only meaningful for KindApps.
type Target struct {
	Kind Kind
	Apps []string
}

// Master returns the master output target.
func Master() Target { return Target{Kind: KindMaster} }

// CurrentApp returns the foreground application target.
func CurrentApp() Target { return Target{Kind: KindCurrent} }

// Unmapped returns the target for all sessions not named elsewhere.
func Unmapped() Target { return Target{Kind: KindUnmapped} }

// Apps returns a target for sessions whose process name contains any of patterns.
func Apps(patterns ...string) Target { return Target{Kind: KindApps, Apps: patterns} }

func (t Target) String() string {
	if t.Kind == KindApps {
		return fmt.Sprintf("apps%v", t.Apps)
	}
	return t.Kind.String()
}

// UnmarshalYAML accepts a tag scalar ("master", "current", "unmapped"),
// a mapping {apps: [...]}, or a bare list of patterns.
// Unknown tags decode to an empty apps target.
func (t *Target) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*t = Target{}
		switch strings.ToLower(strings.TrimSpace(value.Value)) {
		case "master":
			t.Kind = KindMaster
		case "current":
			t.Kind = KindCurrent
		case "unmapped":
			t.Kind = KindUnmapped
		}
		return nil

	case yaml.SequenceNode:
		var apps []string
		if err := value.Decode(&apps); err != nil {
			return fmt.Errorf("target apps: %w", err)
		}
		*t = Apps(apps...)
		return nil

	case yaml.MappingNode:
		var raw struct {
			Apps []string `yaml:"apps"`
		}
		if err := value.Decode(&raw); err != nil {
			return fmt.Errorf("target: %w", err)
		}
		*t = Apps(raw.Apps...)
		return nil
	}

	*t = Target{}
	return nil
}

// MarshalYAML writes the form UnmarshalYAML reads.
func (t Target) MarshalYAML() (interface{}, error) {
	if t.Kind == KindApps {
		apps := t.Apps
		if apps == nil {
			apps = []string{}
		}
		return map[string][]string{"apps": apps}, nil
	}
	return t.Kind.String(), nil
}
